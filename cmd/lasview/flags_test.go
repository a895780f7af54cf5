package main

import "testing"

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"listen", *listen, ":8080"},
		{"data-dir", *dataDir, "."},
		{"config", *configPath, ""},
		{"catalog", *catalogPath, ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("-%s default = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if *showVersion {
		t.Error("-version should default to false")
	}
}
