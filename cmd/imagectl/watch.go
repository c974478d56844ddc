package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imagectl/imagectl/pkg/builder"
	"github.com/imagectl/imagectl/pkg/dockerclient"
	"github.com/imagectl/imagectl/pkg/gitscan"
	"github.com/imagectl/imagectl/pkg/logging"
	"github.com/imagectl/imagectl/pkg/matrix"
	"github.com/imagectl/imagectl/pkg/output"
	"github.com/imagectl/imagectl/pkg/state"
	"github.com/imagectl/imagectl/pkg/watch"

	"github.com/spf13/cobra"
)

var (
	watchRoot     string
	watchRepo     string
	watchConfig   string
	watchRegistry string
	watchNoCache  bool
	watchDebounce time.Duration
	watchDebug    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild changed images on local file change",
	Long: `Watches the root's unit directories and rebuilds a unit whenever its
files change, debounced. Intended for the local development loop; builds
are tagged the same way 'imagectl build' tags them.

Logs go to the terminal and to a rotated file under ~/.imagectl/logs/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch()
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchRoot, "root", "r", "", "Watched root directory (repository-relative)")
	watchCmd.Flags().StringVar(&watchRepo, "repo", ".", "Repository path (discovery walks up to .git)")
	watchCmd.Flags().StringVarP(&watchConfig, "config", "c", "", "Config file (default: imagectl.yaml if present)")
	watchCmd.Flags().StringVar(&watchRegistry, "registry", "", "Registry prefix for image references")
	watchCmd.Flags().BoolVar(&watchNoCache, "no-cache", false, "Force full rebuilds")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Settle time before rebuilding")
	watchCmd.Flags().BoolVar(&watchDebug, "debug", false, "Enable debug logging")
}

func runWatch() error {
	printer := output.New()
	printer.SetDebug(watchDebug)

	cfg, err := loadConfig(watchConfig)
	if err != nil {
		return err
	}

	root := watchRoot
	if root == "" {
		root = cfg.Root
	}
	registry := watchRegistry
	if registry == "" {
		registry = cfg.Registry
	}

	worktree, err := gitscan.WorktreeRoot(watchRepo)
	if err != nil {
		return err
	}
	rootDir, err := resolveRootDir(worktree, root)
	if err != nil {
		return err
	}

	cli, err := dockerclient.New()
	if err != nil {
		return fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}

	if err := state.EnsureLogDir(); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	fileLogger := logging.NewStructuredLogger(logging.Config{
		Level:     logLevel(watchDebug),
		Format:    logging.FormatJSON,
		Output:    logging.NewRotatingWriter(state.LogPath(root)),
		Component: "watch",
	})

	b := builder.New(cli, worktree)
	b.SetLogger(fileLogger)

	onChange := func(units []string) error {
		headSHA, err := gitscan.ResolveHead(watchRepo, "HEAD")
		if err != nil {
			return err
		}

		kept := units[:0]
		for _, u := range units {
			if !cfg.Excluded(u) {
				kept = append(kept, u)
			}
		}
		m, err := matrix.Build(kept, root)
		if err != nil {
			return err
		}
		if m.IsEmpty() {
			return nil
		}

		printer.Info("Rebuilding", "units", kept)
		results := b.RunMatrix(ctx, m, builder.BuildSpec{
			Registry:  registry,
			HeadSHA:   headSHA,
			BuildArgs: cfg.Build.Args,
			NoCache:   watchNoCache,
		}, cfg.Build.Concurrency)

		printBuildSummary(printer, results)
		if failed := builder.Failed(results); failed > 0 {
			return fmt.Errorf("%d of %d builds failed", failed, len(results))
		}
		return nil
	}

	watcher := watch.NewWatcher(rootDir, onChange)
	watcher.SetLogger(fileLogger)
	watcher.SetDebounce(watchDebounce)

	printer.Banner(version)
	printer.Info("Watching for changes", "root", root)

	err = watcher.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		printer.Info("Stopped")
		return nil
	}
	return err
}
