package main

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/imagectl/imagectl/pkg/gitscan"
	"github.com/imagectl/imagectl/pkg/output"

	"github.com/spf13/cobra"
)

var (
	listRoot   string
	listRepo   string
	listConfig string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List buildable image units under the watched root",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func init() {
	listCmd.Flags().StringVarP(&listRoot, "root", "r", "", "Watched root directory (repository-relative)")
	listCmd.Flags().StringVar(&listRepo, "repo", ".", "Repository path (discovery walks up to .git)")
	listCmd.Flags().StringVarP(&listConfig, "config", "c", "", "Config file (default: imagectl.yaml if present)")
}

func runList() error {
	printer := output.NewWithWriter(os.Stdout)

	cfg, err := loadConfig(listConfig)
	if err != nil {
		return err
	}

	root := listRoot
	if root == "" {
		root = cfg.Root
	}

	worktree, err := gitscan.WorktreeRoot(listRepo)
	if err != nil {
		return err
	}

	rootDir, err := resolveRootDir(worktree, root)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return err
	}

	var rows []output.UnitRow
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		dir := filepath.Join(rootDir, name)

		row := output.UnitRow{
			Name:       name,
			Path:       path.Join(root, name),
			Dockerfile: "-",
			Version:    "-",
		}
		for _, candidate := range []string{"Dockerfile", "dockerfile", "Containerfile"} {
			if _, err := os.Stat(filepath.Join(dir, candidate)); err == nil {
				row.Dockerfile = candidate
				break
			}
		}
		if data, err := os.ReadFile(filepath.Join(dir, "VERSION")); err == nil {
			row.Version = strings.TrimSpace(string(data))
		}
		rows = append(rows, row)
	}

	printer.Units(rows)
	return nil
}

// resolveRootDir maps the repository-relative root onto the working tree
// and verifies it is an existing directory.
func resolveRootDir(worktree, root string) (string, error) {
	if root == "" {
		return "", &gitscan.RootError{Root: root, Reason: "watched root is required"}
	}
	rootDir := filepath.Join(worktree, filepath.FromSlash(root))
	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return "", &gitscan.RootError{Root: root, Reason: "not a directory in the working tree"}
	}
	return rootDir, nil
}
