// Package gitscan detects which first-level subdirectories of a watched root
// changed between two git revisions. Each such subdirectory is an
// independently buildable image unit.
package gitscan

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/imagectl/imagectl/pkg/logging"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Options describe a single scan.
type Options struct {
	// RepoPath is where repository discovery starts (default ".").
	// The .git directory is located by walking up from here.
	RepoPath string

	// Base is the revision to diff against. Required.
	Base string

	// Head is the revision whose tree is treated as current.
	// Defaults to "HEAD".
	Head string

	// Root is the repository-relative watched root, e.g. "ops/docker".
	Root string
}

// Result is the outcome of a scan.
type Result struct {
	// Units holds the changed first-level subdirectory names,
	// deduplicated and sorted lexicographically.
	Units []string

	// BaseHash and HeadHash are the resolved full commit hashes.
	BaseHash string
	HeadHash string
}

// Scanner computes changed build units between two revisions.
// Scans are read-only and safe to re-invoke with identical inputs.
type Scanner struct {
	logger *slog.Logger
}

// New creates a Scanner with logging discarded.
func New() *Scanner {
	return &Scanner{logger: logging.NewDiscardLogger()}
}

// SetLogger sets the logger for scan progress.
func (s *Scanner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Scan diffs base..head and returns the changed units under the watched root.
//
// Files directly in the root (not inside a subdirectory) never produce a
// unit: a shared README edit must not trigger a fleet-wide rebuild. A rename
// counts for both its old and new location, and a deleted subdirectory still
// yields its name so the downstream build surfaces the missing directory
// instead of silently skipping it.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	root, err := normalizeRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	repoPath := opts.RepoPath
	if repoPath == "" {
		repoPath = "."
	}
	head := opts.Head
	if head == "" {
		head = "HEAD"
	}
	if opts.Base == "" {
		return nil, &RevisionError{Revision: "", Err: fmt.Errorf("base revision is required")}
	}

	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", repoPath, err)
	}

	baseCommit, baseHash, err := resolveCommit(repo, opts.Base)
	if err != nil {
		return nil, err
	}
	headCommit, headHash, err := resolveCommit(repo, head)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("resolved revisions",
		"base", baseHash.String(), "head", headHash.String(), "root", root)

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading head tree: %w", err)
	}

	// The root must be a directory at head. A missing or file-typed root is
	// a configuration error, not an empty result.
	if _, err := headTree.Tree(root); err != nil {
		return nil, &RootError{Root: root, Reason: "not a directory at head revision"}
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	seen := make(map[string]bool)
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if unit, ok := unitFor(root, name); ok {
				seen[unit] = true
			}
		}
	}

	units := make([]string, 0, len(seen))
	for unit := range seen {
		units = append(units, unit)
	}
	sort.Strings(units)

	s.logger.Info("scan complete", "root", root, "changed", len(units))

	return &Result{
		Units:    units,
		BaseHash: baseHash.String(),
		HeadHash: headHash.String(),
	}, nil
}

// ResolveHead resolves a revision to its full commit hash. Used by callers
// that need the head SHA for immutable image tags.
func ResolveHead(repoPath, rev string) (string, error) {
	if repoPath == "" {
		repoPath = "."
	}
	if rev == "" {
		rev = "HEAD"
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening repository at %s: %w", repoPath, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", &RevisionError{Revision: rev, Err: err}
	}
	return hash.String(), nil
}

// WorktreeRoot returns the filesystem root of the repository's working
// tree, so repository-relative matrix paths can be resolved on disk.
func WorktreeRoot(repoPath string) (string, error) {
	if repoPath == "" {
		repoPath = "."
	}
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening repository at %s: %w", repoPath, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolving worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// resolveCommit resolves a revision string to its commit object.
func resolveCommit(repo *git.Repository, rev string) (*object.Commit, plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, plumbing.ZeroHash, &RevisionError{Revision: rev, Err: err}
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, plumbing.ZeroHash, &RevisionError{Revision: rev, Err: err}
	}
	return commit, *hash, nil
}

// normalizeRoot cleans the watched root to a repo-relative slash path.
func normalizeRoot(root string) (string, error) {
	if root == "" {
		return "", &RootError{Root: root, Reason: "watched root is required"}
	}
	cleaned := path.Clean(strings.TrimSuffix(strings.ReplaceAll(root, "\\", "/"), "/"))
	if cleaned == "." || cleaned == "/" || strings.HasPrefix(cleaned, "..") {
		return "", &RootError{Root: root, Reason: "must be a repository-relative directory path"}
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

// unitFor extracts the first-level subdirectory name of a changed path under
// the root. Paths directly in the root (no further segment) are discarded.
func unitFor(root, changed string) (string, bool) {
	if changed == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(changed, root+"/")
	if !ok {
		return "", false
	}
	unit, remainder, found := strings.Cut(rest, "/")
	if !found || unit == "" || remainder == "" {
		// A file directly in the root is not a buildable unit change.
		return "", false
	}
	return unit, true
}
