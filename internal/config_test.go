package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Notes.MaxNotes != 5000 {
		t.Errorf("max_notes = %d, want 5000", cfg.Notes.MaxNotes)
	}
	if cfg.Notes.DefaultPageSize != 20 {
		t.Errorf("default_page_size = %d, want 20", cfg.Notes.DefaultPageSize)
	}
}

func TestNotesConfig_Limits(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NotesConfig
		wantErr bool
	}{
		{"defaults", NotesConfig{MaxNotes: 5000, DefaultPageSize: 20}, false},
		{"lower capacity", NotesConfig{MaxNotes: 10, DefaultPageSize: 20}, false},
		{"zero capacity", NotesConfig{MaxNotes: 0, DefaultPageSize: 20}, true},
		{"capacity above hard limit", NotesConfig{MaxNotes: 100000, DefaultPageSize: 20}, true},
		{"page too large", NotesConfig{MaxNotes: 10, DefaultPageSize: 1000}, true},
		{"negative page", NotesConfig{MaxNotes: 10, DefaultPageSize: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInboxConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := InboxConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled inbox without path should fail")
	}
	cfg.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled inbox without path should pass: %v", err)
	}
}

func TestFullConfig_ReportsSection(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("missing sqlite path should fail")
	}
	if !strings.Contains(err.Error(), "sqlite") {
		t.Errorf("error should name the section: %v", err)
	}
}
