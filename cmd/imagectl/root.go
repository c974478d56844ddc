package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/imagectl/imagectl/pkg/gitscan"
	"github.com/imagectl/imagectl/pkg/matrix"

	"github.com/spf13/cobra"
)

// Exit codes let the surrounding pipeline distinguish failure classes.
const (
	exitGeneric  = 1
	exitRevision = 2
	exitRoot     = 3
	exitBasename = 4
)

var rootCmd = &cobra.Command{
	Use:   "imagectl",
	Short: "Change-scoped container image build tool",
	Long: `Imagectl manages a fleet of container image recipes kept as
first-level subdirectories under a single watched root.

It detects which image directories changed between two git revisions,
emits a build matrix for parallel CI fan-out, and can build the changed
images itself against the local Docker daemon.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error types to the documented exit codes.
func exitCode(err error) int {
	var revErr *gitscan.RevisionError
	if errors.As(err, &revErr) {
		return exitRevision
	}
	var rootErr *gitscan.RootError
	if errors.As(err, &rootErr) {
		return exitRoot
	}
	var baseErr *matrix.BasenameError
	if errors.As(err, &baseErr) {
		return exitBasename
	}
	return exitGeneric
}
