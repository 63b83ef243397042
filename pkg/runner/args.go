package runner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/syncdeck/core/pkg/models"
)

// subcommands maps a job's sync kind to the tool's subcommand. Verify is
// additionally constrained to a one-directional comparison so a file only
// present on the destination is not reported against the source.
func subcommand(kind models.SyncKind) ([]string, error) {
	switch kind {
	case models.SyncKindCopy:
		return []string{"copy"}, nil
	case models.SyncKindMirror:
		return []string{"sync"}, nil
	case models.SyncKindVerify:
		return []string{"check", "--one-way"}, nil
	}
	return nil, fmt.Errorf("unknown sync kind %q", kind)
}

// BuildArgs composes the sync tool's argument vector for one job.
func (r *Runner) BuildArgs(job models.Job) ([]string, error) {
	args, err := subcommand(job.Kind)
	if err != nil {
		return nil, err
	}

	args = append(args, job.Source, job.Destination)

	if r.cfg.ConfigPath != "" {
		args = append(args, "--config", r.cfg.ConfigPath)
	}
	if r.cfg.BandwidthLimit != "" {
		args = append(args, "--bwlimit", r.cfg.BandwidthLimit)
	}

	// machine-parseable progress on a fixed cadence
	args = append(args, "--use-json-log", "--stats", "1s")

	extra, err := splitExtraArgs(job.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid extra arguments for job %d: %w", job.ID, err)
	}
	return append(args, extra...), nil
}

// splitExtraArgs accepts both storage forms of a job's extra arguments:
// a JSON string array (newer dashboard versions) or a single
// space-tokenized string with shell-style quoting.
func splitExtraArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var args []string
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("malformed argument array: %w", err)
		}
		return args, nil
	}

	args, err := shellquote.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed argument string: %w", err)
	}
	return args, nil
}
