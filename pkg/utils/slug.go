package utils

import (
	"fmt"

	"github.com/gosimple/slug"
)

// NormalizeSlug creates a URL-friendly slug using the gosimple/slug library.
// Handles the full Unicode range, so job names typed in any language come
// out safe for notification payloads and log fields.
func NormalizeSlug(text string) string {
	if text == "" {
		return ""
	}
	return slug.Make(text)
}

// JobLabel creates a stable, machine-friendly label for a job name.
func JobLabel(jobName string) string {
	if jobName == "" {
		return "job"
	}
	return NormalizeSlug(jobName)
}

// RunLabel creates a label identifying one run of a job.
func RunLabel(jobName string, runID int64) string {
	return fmt.Sprintf("%s-run-%d", JobLabel(jobName), runID)
}
