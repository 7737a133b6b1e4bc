package driver

import (
	"context"
	"testing"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		raw       string
		wantName  string
		wantValue string
		wantHas   bool
	}{
		{"--window-size=1280,800", "window-size", "1280,800", true},
		{"--no-sandbox", "no-sandbox", "", false},
		{"lang=en-US", "lang", "en-US", true},
		{"  --proxy-server=http://127.0.0.1:8080 ", "proxy-server", "http://127.0.0.1:8080", true},
		{"--", "", "", false},
		{"--key=", "key", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, value, has := parseFlag(tt.raw)
			if name != tt.wantName || value != tt.wantValue || has != tt.wantHas {
				t.Errorf("parseFlag(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.raw, name, value, has, tt.wantName, tt.wantValue, tt.wantHas)
			}
		})
	}
}

func TestConnect_RequiresControlURL(t *testing.T) {
	if _, err := Connect(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty control URL")
	}
}
