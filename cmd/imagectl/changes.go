package main

import (
	"context"
	"fmt"
	"os"

	"github.com/imagectl/imagectl/pkg/config"
	"github.com/imagectl/imagectl/pkg/gitscan"
	"github.com/imagectl/imagectl/pkg/matrix"
	"github.com/imagectl/imagectl/pkg/output"
	"github.com/imagectl/imagectl/pkg/state"

	"github.com/spf13/cobra"
)

var (
	changesRoot   string
	changesBase   string
	changesHead   string
	changesRepo   string
	changesConfig string
	changesTable  bool
	changesDebug  bool
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Emit the build matrix for changed image directories",
	Long: `Diffs two git revisions and prints the build matrix of first-level
subdirectories under the watched root that contain changes.

The matrix is a JSON document on stdout of the shape

  {"include":[{"path":"ops/docker/rust-ci-runner","basename":"rust-ci-runner"}]}

ready to be spliced into a parallel-job matrix. An empty matrix
({"include":[]}) is a success and means nothing needs building.

When --base is omitted, the last revision recorded by 'imagectl build'
for this root is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChanges()
	},
}

func init() {
	changesCmd.Flags().StringVarP(&changesRoot, "root", "r", "", "Watched root directory (repository-relative)")
	changesCmd.Flags().StringVarP(&changesBase, "base", "b", "", "Base revision to diff against (default: last built revision)")
	changesCmd.Flags().StringVar(&changesHead, "head", "HEAD", "Head revision")
	changesCmd.Flags().StringVar(&changesRepo, "repo", ".", "Repository path (discovery walks up to .git)")
	changesCmd.Flags().StringVarP(&changesConfig, "config", "c", "", "Config file (default: imagectl.yaml if present)")
	changesCmd.Flags().BoolVar(&changesTable, "table", false, "Print a table instead of JSON")
	changesCmd.Flags().BoolVar(&changesDebug, "debug", false, "Enable debug logging")
}

func runChanges() error {
	printer := output.New()
	printer.SetDebug(changesDebug)

	cfg, err := loadConfig(changesConfig)
	if err != nil {
		return err
	}

	root := changesRoot
	if root == "" {
		root = cfg.Root
	}

	base := changesBase
	if base == "" {
		if st, err := state.Load(root); err == nil && st.Revision != "" {
			base = st.Revision
			printer.Debug("using recorded base revision", "revision", base)
		}
	}

	m, _, err := scanMatrix(context.Background(), printer, cfg, root, base, changesHead, changesRepo)
	if err != nil {
		return err
	}

	if changesTable {
		tablePrinter := output.NewWithWriter(os.Stdout)
		rows := make([]output.MatrixRow, 0, len(m.Include))
		for _, e := range m.Include {
			rows = append(rows, output.MatrixRow{Basename: e.Basename, Path: e.Path})
		}
		tablePrinter.Matrix(rows)
		return nil
	}

	doc, err := m.JSON()
	if err != nil {
		return fmt.Errorf("encoding matrix: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(doc))
	return nil
}

// scanMatrix runs the scanner and matrix builder shared by changes and build.
func scanMatrix(ctx context.Context, printer *output.Printer, cfg *config.Config, root, base, head, repo string) (*matrix.Matrix, *gitscan.Result, error) {
	scanner := gitscan.New()

	result, err := scanner.Scan(ctx, gitscan.Options{
		RepoPath: repo,
		Base:     base,
		Head:     head,
		Root:     root,
	})
	if err != nil {
		return nil, nil, err
	}

	units := result.Units
	if len(cfg.Exclude) > 0 {
		kept := units[:0]
		for _, u := range units {
			if cfg.Excluded(u) {
				printer.Debug("excluded unit", "unit", u)
				continue
			}
			kept = append(kept, u)
		}
		units = kept
	}

	m, err := matrix.Build(units, root)
	if err != nil {
		return nil, nil, err
	}

	printer.Info("scan complete", "root", root, "changed", len(m.Include))
	return m, result, nil
}

// loadConfig loads an explicit config file, or the default one if present.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadIfPresent()
}
