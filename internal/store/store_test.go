package store

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"alice/2024-01.txt", false},
		{"alice.table", false},
		{"analysis/123_a_b_1-0_10.table", false},
		{"", true},
		{"/etc/passwd", true},
		{"../escape", true},
		{"alice/../bob", true},
		{"alice//x", true},
		{"alice/", true},
		{`alice\x`, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey(%q) error = %v, want ErrInvalidKey", tt.key, err)
			}
		})
	}
}
