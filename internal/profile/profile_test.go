package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	origFunc := configDirFunc
	configDirFunc = func() (string, error) {
		return tmpDir, nil
	}
	t.Cleanup(func() {
		configDirFunc = origFunc
	})
	return tmpDir
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(body), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestAdd_NewProfile(t *testing.T) {
	setupTestConfig(t)

	if err := Add("prod", "postgres://localhost/prod"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	profiles, _, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if profiles[0].Name != "prod" {
		t.Errorf("Name = %q, want prod", profiles[0].Name)
	}
	if profiles[0].ConnStr != "postgres://localhost/prod" {
		t.Errorf("ConnStr = %q", profiles[0].ConnStr)
	}
}

func TestAdd_UpdateExisting(t *testing.T) {
	setupTestConfig(t)

	if err := Add("prod", "postgres://localhost/prod_v1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := Add("prod", "postgres://localhost/prod_v2"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	profiles, _, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile after update, got %d", len(profiles))
	}
	if profiles[0].ConnStr != "postgres://localhost/prod_v2" {
		t.Errorf("ConnStr not updated: %q", profiles[0].ConnStr)
	}
}

func TestAdd_KeepsSettings(t *testing.T) {
	dir := setupTestConfig(t)
	writeConfig(t, dir, "settings:\n  format: json\n")

	if err := Add("dev", "postgres://localhost/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.Format != "json" {
		t.Errorf("Format = %q after Add, want json", s.Format)
	}
}

func TestRemove_Existing(t *testing.T) {
	setupTestConfig(t)

	if err := Add("prod", "postgres://localhost/prod"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := Add("dev", "postgres://localhost/dev"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := SetDefault("prod"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	if err := Remove("prod"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	profiles, def, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile after remove, got %d", len(profiles))
	}
	if profiles[0].Name != "dev" {
		t.Errorf("remaining profile = %q, want dev", profiles[0].Name)
	}
	if def != "" {
		t.Errorf("default = %q, want cleared with removed profile", def)
	}
}

func TestRemove_NonExistent(t *testing.T) {
	setupTestConfig(t)

	if err := Add("prod", "postgres://localhost/prod"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := Remove("staging"); err == nil {
		t.Fatal("expected error when removing non-existent profile")
	}
}

func TestResolve(t *testing.T) {
	setupTestConfig(t)

	if _, err := Resolve("anything"); err == nil {
		t.Fatal("expected error when no config file exists")
	}

	if err := Add("prod", "postgres://prod-host/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	connStr, err := Resolve("prod")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if connStr != "postgres://prod-host/db" {
		t.Errorf("ConnStr = %q", connStr)
	}

	if _, err := Resolve("nonexistent"); err == nil {
		t.Fatal("expected error for non-existent profile")
	}
}

func TestSetDefault(t *testing.T) {
	setupTestConfig(t)

	if err := SetDefault("nonexistent"); err == nil {
		t.Fatal("expected error when setting non-existent profile as default")
	}

	if err := Add("prod", "postgres://prod-host/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := SetDefault("prod"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	_, def, err := List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if def != "prod" {
		t.Errorf("default = %q, want prod", def)
	}

	if err := ClearDefault(); err != nil {
		t.Fatalf("ClearDefault failed: %v", err)
	}
	_, def, _ = List()
	if def != "" {
		t.Errorf("default = %q, want empty", def)
	}
}

func TestResolveConnStr(t *testing.T) {
	setupTestConfig(t)

	connStr, err := ResolveConnStr("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if connStr != "" {
		t.Errorf("ConnStr = %q, want empty", connStr)
	}

	if err := Add("prod", "postgres://prod-host/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := Add("dev", "postgres://localhost/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := SetDefault("prod"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	tests := []struct {
		db, profile string
		want        string
	}{
		{"postgres://direct/db", "dev", "postgres://direct/db"},
		{"", "dev", "postgres://localhost/db"},
		{"", "", "postgres://prod-host/db"},
	}
	for _, tt := range tests {
		got, err := ResolveConnStr(tt.db, tt.profile)
		if err != nil {
			t.Fatalf("ResolveConnStr(%q, %q): %v", tt.db, tt.profile, err)
		}
		if got != tt.want {
			t.Errorf("ResolveConnStr(%q, %q) = %q, want %q", tt.db, tt.profile, got, tt.want)
		}
	}
}

func TestList_EmptyConfig(t *testing.T) {
	setupTestConfig(t)

	profiles, def, err := List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles != nil || def != "" {
		t.Errorf("expected nothing configured, got %v default %q", profiles, def)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := setupTestConfig(t)

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s != (Settings{Format: "text"}) {
		t.Errorf("defaults = %+v", s)
	}

	writeConfig(t, dir, "settings:\n  max_input_bytes: 2048\n  plan_name: nightly\n")
	s, err = LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.MaxInputBytes != 2048 || s.PlanName != "nightly" || s.Format != "text" {
		t.Errorf("settings = %+v", s)
	}

	writeConfig(t, dir, "settings: [")
	if _, err := LoadSettings(); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestWriteTemplate(t *testing.T) {
	setupTestConfig(t)

	path, err := WriteTemplate(false)
	if err != nil {
		t.Fatalf("WriteTemplate failed: %v", err)
	}

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if s.MaxInputBytes != 16<<20 || s.Format != "text" {
		t.Errorf("template settings = %+v", s)
	}

	if _, err := WriteTemplate(false); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Errorf("expected overwrite refusal, got %v", err)
	}

	if err := Add("prod", "postgres://prod-host/db"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := WriteTemplate(true); err != nil {
		t.Fatalf("forced WriteTemplate failed: %v", err)
	}
	profiles, _, _ := List()
	if len(profiles) != 0 {
		t.Errorf("forced template kept %d profiles", len(profiles))
	}
	if filepath.Base(path) != configFileName {
		t.Errorf("path = %q", path)
	}
}
