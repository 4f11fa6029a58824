// Package main is the kotae CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hyperjump/kotae/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists, so "kotae serve" from a project
// directory uses that project's config. It returns the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
	}
	loadEnv(filepath.Dir(path))
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadEnv reads .env from the working directory and from dir, without
// overriding variables that are already set.
func loadEnv(dir string) {
	_ = godotenv.Load()
	if dir != "" && dir != "." {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}
}

// joinArgs turns positional arguments into one query, so multi-word
// questions work with or without quotes.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kotae",
		Short:         "Answer questions about your documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		serveCmd(),
		uploadCmd(),
		askCmd(),
		searchCmd(),
		documentsCmd(),
		statusCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kotae version %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
