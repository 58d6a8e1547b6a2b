package logging

import (
	"strings"
	"testing"
)

// TestIsValidLogLevel tests log level validation against the canonical set
func TestIsValidLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		valid bool
	}{
		{
			name:  "debug level",
			level: "DEBUG",
			valid: true,
		},
		{
			name:  "info level",
			level: "INFO",
			valid: true,
		},
		{
			name:  "warn level",
			level: "WARN",
			valid: true,
		},
		{
			name:  "error level",
			level: "ERROR",
			valid: true,
		},
		{
			name:  "lowercase rejected",
			level: "info",
			valid: false,
		},
		{
			name:  "unknown level rejected",
			level: "TRACE",
			valid: false,
		},
		{
			name:  "empty string rejected",
			level: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidLogLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidLogLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}

// TestValidateLogLevel tests that invalid levels produce descriptive errors
func TestValidateLogLevel(t *testing.T) {
	if err := ValidateLogLevel("INFO"); err != nil {
		t.Errorf("ValidateLogLevel(INFO) returned unexpected error: %v", err)
	}

	err := ValidateLogLevel("VERBOSE")
	if err == nil {
		t.Fatal("ValidateLogLevel(VERBOSE) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "VERBOSE") {
		t.Errorf("error %q should mention the invalid level", err.Error())
	}
}

// recordingWriter captures lines routed through a LevelWriter for assertions
type recordingWriter struct {
	lines []string
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.lines = append(r.lines, string(p))
	return len(p), nil
}

// TestLevelWriterSplitsLines tests that multi-line writes are logged per line
func TestLevelWriterSplitsLines(t *testing.T) {
	// LevelWriter routes through package-level log functions; verify the
	// io.Writer contract directly: full length reported, no error.
	w := NewLevelWriter("INFO", "gin")

	input := []byte("line one\nline two\n\n")
	n, err := w.Write(input)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != len(input) {
		t.Errorf("Write returned %d, want %d", n, len(input))
	}
}

// TestRedirectStandardLogNil tests that nil redirection does not panic
func TestRedirectStandardLogNil(t *testing.T) {
	RedirectStandardLog(nil)
	RedirectStandardLog(&recordingWriter{})
}
