package utils

import (
	"testing"
)

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Basic text with spaces",
			input:    "Media Backup",
			expected: "media-backup",
		},
		{
			name:     "German special characters",
			input:    "Fotos München",
			expected: "fotos-munchen",
		},
		{
			name:     "Accented characters",
			input:    "Résumé Archive",
			expected: "resume-archive",
		},
		{
			name:     "Numbers and special chars",
			input:    "NAS 2! @#$% Mirror",
			expected: "nas-2-at-mirror",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Multiple spaces and hyphens",
			input:    "Weekly    ---    Offsite   Copy",
			expected: "weekly-offsite-copy",
		},
		{
			name:     "Leading and trailing spaces",
			input:    "   Documents Sync   ",
			expected: "documents-sync",
		},
		{
			name:     "Path-like name",
			input:    "home/user photos",
			expected: "home-user-photos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeSlug(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeSlug(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestJobLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Normal job name",
			input:    "Nightly Media Backup",
			expected: "nightly-media-backup",
		},
		{
			name:     "Empty name falls back",
			input:    "",
			expected: "job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := JobLabel(tt.input)
			if result != tt.expected {
				t.Errorf("JobLabel(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRunLabel(t *testing.T) {
	result := RunLabel("Media Backup", 42)
	expected := "media-backup-run-42"
	if result != expected {
		t.Errorf("RunLabel() = %q, want %q", result, expected)
	}
}
