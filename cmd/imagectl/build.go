package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/imagectl/imagectl/internal/telemetry"
	"github.com/imagectl/imagectl/pkg/builder"
	"github.com/imagectl/imagectl/pkg/config"
	"github.com/imagectl/imagectl/pkg/dockerclient"
	"github.com/imagectl/imagectl/pkg/gitscan"
	"github.com/imagectl/imagectl/pkg/logging"
	"github.com/imagectl/imagectl/pkg/matrix"
	"github.com/imagectl/imagectl/pkg/output"
	"github.com/imagectl/imagectl/pkg/state"

	"github.com/spf13/cobra"
)

var (
	buildRoot        string
	buildBase        string
	buildHead        string
	buildRepo        string
	buildConfig      string
	buildAll         bool
	buildNoCache     bool
	buildRegistry    string
	buildConcurrency int
	buildDebug       bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build changed images against the local Docker daemon",
	Long: `Scans for changed image directories and builds each one in parallel.

Every image gets a moving 'latest' tag and an immutable commit-SHA tag;
a VERSION file in the image directory adds a semver tag. A failing entry
is reported but never cancels the other builds.

Use --all to skip change detection and build every unit under the root.
On full success the head revision is recorded, so the next scan can
default its base to "what was built last".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild()
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildRoot, "root", "r", "", "Watched root directory (repository-relative)")
	buildCmd.Flags().StringVarP(&buildBase, "base", "b", "", "Base revision to diff against (default: last built revision)")
	buildCmd.Flags().StringVar(&buildHead, "head", "HEAD", "Head revision")
	buildCmd.Flags().StringVar(&buildRepo, "repo", ".", "Repository path (discovery walks up to .git)")
	buildCmd.Flags().StringVarP(&buildConfig, "config", "c", "", "Config file (default: imagectl.yaml if present)")
	buildCmd.Flags().BoolVar(&buildAll, "all", false, "Build every unit, skipping change detection")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "Force full rebuilds")
	buildCmd.Flags().StringVar(&buildRegistry, "registry", "", "Registry prefix for image references")
	buildCmd.Flags().IntVar(&buildConcurrency, "concurrency", 0, "Parallel build limit (0 = auto)")
	buildCmd.Flags().BoolVar(&buildDebug, "debug", false, "Enable debug logging")
}

func runBuild() error {
	printer := output.New()
	printer.SetDebug(buildDebug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, version)
	if err != nil {
		printer.Warn("telemetry disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(buildConfig)
	if err != nil {
		return err
	}

	root := buildRoot
	if root == "" {
		root = cfg.Root
	}
	registry := buildRegistry
	if registry == "" {
		registry = cfg.Registry
	}

	worktree, err := gitscan.WorktreeRoot(buildRepo)
	if err != nil {
		return err
	}

	var m *matrix.Matrix
	if buildAll {
		m, err = allUnitsMatrix(worktree, root, cfg)
	} else {
		base := buildBase
		if base == "" {
			if st, stErr := state.Load(root); stErr == nil && st.Revision != "" {
				base = st.Revision
				printer.Debug("using recorded base revision", "revision", base)
			}
		}
		ctx, finish := telemetry.StartSpan(ctx, "imagectl.scan", map[string]string{"root": root})
		m, _, err = scanMatrix(ctx, printer, cfg, root, base, buildHead, buildRepo)
		finish(err)
	}
	if err != nil {
		return err
	}

	if m.IsEmpty() {
		printer.Info("Nothing to build")
		return nil
	}

	headSHA, err := gitscan.ResolveHead(buildRepo, buildHead)
	if err != nil {
		return err
	}

	cli, err := dockerclient.New()
	if err != nil {
		return fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	if _, err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}

	spec := builder.BuildSpec{
		Registry:  registry,
		HeadSHA:   headSHA,
		BuildArgs: cfg.Build.Args,
		NoCache:   buildNoCache || cfg.Build.NoCache,
	}
	printer.Debug("build args", "args", logging.RedactArgs(spec.BuildArgs))

	concurrency := buildConcurrency
	if concurrency == 0 {
		concurrency = cfg.Build.Concurrency
	}

	b := builder.New(cli, worktree)
	b.SetLogger(logging.NewStructuredLogger(logging.Config{
		Level:     logLevel(buildDebug),
		Format:    logging.FormatText,
		Component: "builder",
	}))

	printer.Info("Building images", "entries", len(m.Include), "head", headSHA[:12])

	buildCtx, finish := telemetry.StartSpan(ctx, "imagectl.build", map[string]string{
		"root": root, "revision": headSHA,
	})
	results := b.RunMatrix(buildCtx, m, spec, concurrency)
	failed := builder.Failed(results)
	if failed > 0 {
		finish(fmt.Errorf("%d builds failed", failed))
	} else {
		finish(nil)
	}

	printBuildSummary(printer, results)

	if failed > 0 {
		return fmt.Errorf("%d of %d builds failed", failed, len(results))
	}

	// Record the built revision so the next scan has a base.
	built := make([]string, 0, len(results))
	for i := range results {
		built = append(built, results[i].Basename)
	}
	err = state.WithLock(root, 5*time.Second, func() error {
		return state.Save(&state.BuildState{
			Root:     root,
			Revision: headSHA,
			Units:    built,
			BuiltAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		printer.Warn("could not record built revision", "error", err)
	}

	return nil
}

// allUnitsMatrix builds a matrix from every first-level subdirectory under
// the root, for --all runs.
func allUnitsMatrix(worktree, root string, cfg *config.Config) (*matrix.Matrix, error) {
	rootDir, err := resolveRootDir(worktree, root)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("reading root directory: %w", err)
	}

	var units []string
	for _, entry := range entries {
		if !entry.IsDir() || cfg.Excluded(entry.Name()) {
			continue
		}
		units = append(units, entry.Name())
	}

	return matrix.Build(units, root)
}

func printBuildSummary(printer *output.Printer, results []builder.BuildResult) {
	rows := make([]output.BuildRow, 0, len(results))
	for i := range results {
		r := &results[i]
		row := output.BuildRow{
			Unit:     r.Basename,
			Tags:     strings.Join(r.Tags, ", "),
			Duration: r.Duration.Round(time.Millisecond).String(),
			Status:   "built",
		}
		if r.Failed() {
			row.Status = "failed"
			row.Message = r.Err.Error()
		}
		rows = append(rows, row)
	}
	printer.BuildSummary(rows)
}

func logLevel(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
