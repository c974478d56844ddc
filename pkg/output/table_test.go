package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMatrix_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Matrix(nil)

	if !strings.Contains(buf.String(), "No changed build units") {
		t.Errorf("expected empty-state message, got %q", buf.String())
	}
}

func TestMatrix_Rows(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Matrix([]MatrixRow{
		{Basename: "api", Path: "ops/docker/api"},
		{Basename: "worker", Path: "ops/docker/worker"},
	})

	got := buf.String()
	// go-pretty uppercases headers
	for _, want := range []string{"BUILD MATRIX", "BASENAME", "api", "ops/docker/worker"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestUnits_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Units(nil)

	if !strings.Contains(buf.String(), "No buildable units found") {
		t.Errorf("expected empty-state message, got %q", buf.String())
	}
}

func TestUnits_Rows(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.Units([]UnitRow{
		{Name: "api", Path: "ops/docker/api", Dockerfile: "Dockerfile", Version: "1.2.3"},
		{Name: "scratch", Path: "ops/docker/scratch", Dockerfile: "-", Version: "-"},
	})

	got := buf.String()
	for _, want := range []string{"UNITS", "api", "Dockerfile", "1.2.3", "scratch"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.BuildSummary(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty summary, got %q", buf.String())
	}
}

func TestBuildSummary_Rows(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	p.BuildSummary([]BuildRow{
		{Unit: "api", Tags: "api:latest", Duration: "1.2s", Status: "built"},
		{Unit: "worker", Status: "failed", Message: "no Dockerfile"},
	})

	got := buf.String()
	for _, want := range []string{"BUILDS", "api:latest", "built", "failed", "no Dockerfile"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}
