package config

import (
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	cfg := &Config{
		Root:     "ops/docker",
		Registry: "ghcr.io/acme",
		Exclude:  []string{"legacy", "scratch"},
		Build:    BuildSettings{Concurrency: 4},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	// A zero config is valid; root comes from the flag instead.
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_AbsoluteRoot(t *testing.T) {
	err := Validate(&Config{Root: "/ops/docker"})
	if err == nil {
		t.Fatal("expected error for absolute root")
	}
	if !strings.Contains(err.Error(), "root") {
		t.Errorf("expected root in error, got: %v", err)
	}
}

func TestValidate_RootEscapesRepo(t *testing.T) {
	if err := Validate(&Config{Root: "../outside"}); err == nil {
		t.Fatal("expected error for root outside repository")
	}
}

func TestValidate_RegistryTrailingSlash(t *testing.T) {
	if err := Validate(&Config{Registry: "ghcr.io/acme/"}); err == nil {
		t.Fatal("expected error for trailing slash")
	}
}

func TestValidate_RegistryUppercase(t *testing.T) {
	if err := Validate(&Config{Registry: "ghcr.io/Acme"}); err == nil {
		t.Fatal("expected error for uppercase registry")
	}
}

func TestValidate_ExcludeInvalidName(t *testing.T) {
	err := Validate(&Config{Exclude: []string{"ok", "Not OK"}})
	if err == nil {
		t.Fatal("expected error for invalid exclude entry")
	}
	if !strings.Contains(err.Error(), "exclude[1]") {
		t.Errorf("expected exclude[1] in error, got: %v", err)
	}
}

func TestValidate_ExcludeDuplicate(t *testing.T) {
	if err := Validate(&Config{Exclude: []string{"api", "api"}}); err == nil {
		t.Fatal("expected error for duplicate exclude entry")
	}
}

func TestValidate_NegativeConcurrency(t *testing.T) {
	cfg := &Config{Build: BuildSettings{Concurrency: -1}}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative concurrency")
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := &Config{
		Root:     "/abs",
		Registry: "GHCR.io/",
		Build:    BuildSettings{Concurrency: -2},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) < 3 {
		t.Errorf("expected at least 3 errors, got %d: %v", len(verrs), verrs)
	}
}
