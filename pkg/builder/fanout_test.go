package builder

import (
	"context"
	"testing"

	"github.com/imagectl/imagectl/pkg/matrix"
)

func TestRunMatrix_AllSucceed(t *testing.T) {
	repoDir := t.TempDir()
	m := &matrix.Matrix{}
	for _, name := range []string{"api", "nginx", "worker"} {
		m.Include = append(m.Include, writeUnit(t, repoDir, name, map[string]string{"Dockerfile": "FROM alpine"}))
	}

	mock := &MockDockerClient{}
	b := New(mock, repoDir)

	results := b.RunMatrix(context.Background(), m, BuildSpec{HeadSHA: testHeadSHA}, 2)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results stay in matrix order regardless of completion order.
	for i, want := range []string{"api", "nginx", "worker"} {
		if results[i].Basename != want {
			t.Errorf("result %d: expected %s, got %s", i, want, results[i].Basename)
		}
		if results[i].Err != nil {
			t.Errorf("result %d: unexpected error: %v", i, results[i].Err)
		}
	}
	if Failed(results) != 0 {
		t.Errorf("expected no failures, got %d", Failed(results))
	}
	if mock.callCount("ImageBuild") != 3 {
		t.Errorf("expected 3 builds, got %d", mock.callCount("ImageBuild"))
	}
}

func TestRunMatrix_FailureDoesNotCancelSiblings(t *testing.T) {
	repoDir := t.TempDir()
	m := &matrix.Matrix{}
	m.Include = append(m.Include, writeUnit(t, repoDir, "api", map[string]string{"Dockerfile": "FROM alpine"}))
	m.Include = append(m.Include, writeUnit(t, repoDir, "broken", map[string]string{"README.md": "no dockerfile"}))
	m.Include = append(m.Include, writeUnit(t, repoDir, "worker", map[string]string{"Dockerfile": "FROM alpine"}))

	mock := &MockDockerClient{}
	b := New(mock, repoDir)

	results := b.RunMatrix(context.Background(), m, BuildSpec{}, 1)
	if Failed(results) != 1 {
		t.Fatalf("expected 1 failure, got %d", Failed(results))
	}
	if results[1].Err == nil {
		t.Error("expected the broken entry to fail")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("expected siblings of a failed entry to still build")
	}
	if mock.callCount("ImageBuild") != 2 {
		t.Errorf("expected 2 builds, got %d", mock.callCount("ImageBuild"))
	}
}

func TestRunMatrix_Empty(t *testing.T) {
	b := New(&MockDockerClient{}, t.TempDir())

	results := b.RunMatrix(context.Background(), &matrix.Matrix{}, BuildSpec{}, 4)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunMatrix_DefaultConcurrency(t *testing.T) {
	repoDir := t.TempDir()
	m := &matrix.Matrix{}
	m.Include = append(m.Include, writeUnit(t, repoDir, "api", map[string]string{"Dockerfile": "FROM alpine"}))

	b := New(&MockDockerClient{}, repoDir)

	// Zero concurrency falls back to the default bound.
	results := b.RunMatrix(context.Background(), m, BuildSpec{}, 0)
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("expected one successful result, got %+v", results)
	}
}

func TestFailed(t *testing.T) {
	results := []BuildResult{
		{Basename: "a"},
		{Basename: "b", Err: context.Canceled},
		{Basename: "c", Err: context.Canceled},
	}
	if got := Failed(results); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
