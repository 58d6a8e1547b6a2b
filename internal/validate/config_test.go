package validate

import (
	"testing"
	"time"
)

// TestValidatePortRange tests port boundary validation
func TestValidatePortRange(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{
			name:    "valid low port",
			port:    1,
			wantErr: false,
		},
		{
			name:    "valid common port",
			port:    8080,
			wantErr: false,
		},
		{
			name:    "valid max port",
			port:    65535,
			wantErr: false,
		},
		{
			name:    "port zero rejected",
			port:    0,
			wantErr: true,
		},
		{
			name:    "negative port rejected",
			port:    -1,
			wantErr: true,
		},
		{
			name:    "port above range rejected",
			port:    65536,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePortRange(tt.port)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePortRange(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			}
		})
	}
}

// TestValidateRequiredString tests required string validation
func TestValidateRequiredString(t *testing.T) {
	if err := ValidateRequiredString("postgres://localhost/plaza", "database DSN"); err != nil {
		t.Errorf("non-empty string should validate: %v", err)
	}

	err := ValidateRequiredString("", "database DSN")
	if err == nil {
		t.Fatal("empty string should fail validation")
	}
}

// TestValidatePositiveTimeout tests duration validation
func TestValidatePositiveTimeout(t *testing.T) {
	if err := ValidatePositiveTimeout(5*time.Second, "statement timeout"); err != nil {
		t.Errorf("positive timeout should validate: %v", err)
	}
	if err := ValidatePositiveTimeout(0, "statement timeout"); err == nil {
		t.Error("zero timeout should fail validation")
	}
	if err := ValidatePositiveTimeout(-time.Second, "statement timeout"); err == nil {
		t.Error("negative timeout should fail validation")
	}
}

// TestValidatePositiveCount tests integer count validation
func TestValidatePositiveCount(t *testing.T) {
	if err := ValidatePositiveCount(100, "batch size"); err != nil {
		t.Errorf("positive count should validate: %v", err)
	}
	if err := ValidatePositiveCount(0, "batch size"); err == nil {
		t.Error("zero count should fail validation")
	}
}
