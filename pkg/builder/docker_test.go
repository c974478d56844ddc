package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildImage_Success(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM alpine"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mock := &MockDockerClient{}
	id, err := BuildImage(context.Background(), mock, dir, "Dockerfile", "api:latest",
		map[string]string{"BASE_TAG": "3.20"}, map[string]string{"title": "api"}, false, newTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sha256:mockimage" {
		t.Errorf("expected image ID from aux, got %q", id)
	}

	opts := mock.LastBuildOptions
	if opts.Dockerfile != "Dockerfile" {
		t.Errorf("expected dockerfile option, got %q", opts.Dockerfile)
	}
	if arg := opts.BuildArgs["BASE_TAG"]; arg == nil || *arg != "3.20" {
		t.Error("expected BASE_TAG build arg to be forwarded")
	}
	if opts.Labels["title"] != "api" {
		t.Error("expected labels to be forwarded")
	}
	if !opts.Remove {
		t.Error("expected intermediate container removal")
	}
}

func TestBuildImage_MissingDockerfile(t *testing.T) {
	mock := &MockDockerClient{}
	_, err := BuildImage(context.Background(), mock, t.TempDir(), "Dockerfile", "api:latest",
		nil, nil, false, newTestLogger())
	if err == nil {
		t.Fatal("expected error for missing dockerfile")
	}
	if mock.callCount("ImageBuild") != 0 {
		t.Error("expected no daemon call when dockerfile is missing")
	}
}

func TestBuildImage_DaemonReportsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM alpine"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mock := &MockDockerClient{
		BuildBody: `{"stream":"Step 1/1 : FROM alpine\n"}
{"error":"executor failed running"}
`,
	}
	_, err := BuildImage(context.Background(), mock, dir, "Dockerfile", "api:latest",
		nil, nil, false, newTestLogger())
	if err == nil {
		t.Fatal("expected error from build stream")
	}
	if !strings.Contains(err.Error(), "executor failed") {
		t.Errorf("expected daemon error message, got: %v", err)
	}
}

func TestStreamBuildOutput_ImageID(t *testing.T) {
	id, err := streamBuildOutput(strings.NewReader(successStream), newTestLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sha256:mockimage" {
		t.Errorf("expected sha256:mockimage, got %q", id)
	}
}

func TestStreamBuildOutput_MalformedJSON(t *testing.T) {
	_, err := streamBuildOutput(strings.NewReader("not json"), newTestLogger())
	if err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestGetExcludePatterns_Defaults(t *testing.T) {
	patterns := getExcludePatterns(t.TempDir())

	found := false
	for _, p := range patterns {
		if p == ".git" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected .git in default patterns, got %v", patterns)
	}
}

func TestGetExcludePatterns_Dockerignore(t *testing.T) {
	dir := t.TempDir()
	ignore := "# comment\n\ntarget/\n*.log\n"
	if err := os.WriteFile(filepath.Join(dir, ".dockerignore"), []byte(ignore), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	patterns := getExcludePatterns(dir)

	var gotTarget, gotLog, gotComment bool
	for _, p := range patterns {
		switch p {
		case "target/":
			gotTarget = true
		case "*.log":
			gotLog = true
		case "# comment":
			gotComment = true
		}
	}
	if !gotTarget || !gotLog {
		t.Errorf("expected .dockerignore patterns, got %v", patterns)
	}
	if gotComment {
		t.Errorf("expected comments to be skipped, got %v", patterns)
	}
}
