package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"script-translator/internal/config"
	"script-translator/internal/filewalker"
	"script-translator/internal/logging"
	"script-translator/internal/manifest"
	"script-translator/internal/parser"
	"script-translator/internal/pipeline"
	"script-translator/internal/watch"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Execute runs the CLI application.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	cfg := config.Load()
	var logCloser io.Closer

	rootCmd := &cobra.Command{
		Use:          "script-translator",
		Short:        "Translate episode scripts into HTML fragments",
		Long:         "Converts line-oriented episode scripts (dialogue, events, zones, notices, images) into HTML fragments for a static site.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logCloser = logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(buildCmd(cfg))
	rootCmd.AddCommand(watchCmd(cfg))
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(inspectCmd())

	return rootCmd
}

func addBuildFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVarP(&cfg.SourceDir, "source", "s", cfg.SourceDir, "Root directory for source scanning")
	cmd.Flags().StringVarP(&cfg.OutputDir, "destination", "d", cfg.OutputDir, "Root directory for results")
	cmd.Flags().StringVarP(&cfg.Filter, "filter", "f", cfg.Filter, "Regular expression a source path must match")
	cmd.Flags().StringVar(&cfg.SourcePattern, "pattern", cfg.SourcePattern, "Glob pattern for source files, relative to the source root")
	cmd.Flags().BoolVarP(&cfg.Force, "update", "u", cfg.Force, "Rebuild every file regardless of modification time")
	cmd.Flags().IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Number of scripts translated in parallel")
	cmd.Flags().StringVar(&cfg.ManifestDSN, "manifest", cfg.ManifestDSN, "Build manifest: SQLite file path or postgres:// URL")
}

func buildCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Translate every script under the source root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cfg)
		},
	}
	addBuildFlags(cmd, cfg)
	return cmd
}

func watchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild scripts as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cfg)
		},
	}
	addBuildFlags(cmd, cfg)
	cmd.Flags().IntVar(&cfg.WatchDebounceMS, "debounce", cfg.WatchDebounceMS, "Milliseconds to wait for changes to settle")
	return cmd
}

func renderCmd() *cobra.Command {
	var episode string
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Translate a single script and print the HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parser.TranslateFile(args[0], parser.Options{EpisodeHint: episode})
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				log.Warn().Str("kind", string(w.Kind)).Int("line", w.Line).Msg(w.Message)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.HTML)
			return err
		},
	}
	cmd.Flags().StringVar(&episode, "episode", "", "Episode id used when the script declares none")
	return cmd
}

// inspectReport is the YAML shape printed by the inspect command.
type inspectReport struct {
	File     string         `yaml:"file"`
	Episode  string         `yaml:"episode"`
	Lines    int            `yaml:"lines"`
	Meta     map[string]any `yaml:"meta,omitempty"`
	Warnings []string       `yaml:"warnings,omitempty"`
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the front matter and diagnostics of a script as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parser.TranslateFile(args[0], parser.Options{})
			if err != nil {
				return err
			}
			report := inspectReport{
				File:    args[0],
				Episode: res.EpisodeID,
				Lines:   res.Lines,
				Meta:    res.Meta,
			}
			for _, w := range res.Warnings {
				report.Warnings = append(report.Warnings, w.String())
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			return enc.Close()
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initDependencies creates the walker, the manifest and the builder shared
// by build and watch.
func initDependencies(ctx context.Context, cfg *config.Config) (*filewalker.Walker, *pipeline.Builder, *manifest.Manifest, error) {
	if cfg.SourceDir == "" {
		return nil, nil, nil, errors.New("missing source directory (-s or SOURCE_DIR)")
	}

	walker, err := filewalker.NewWalker(filewalker.Options{
		Pattern: cfg.SourcePattern,
		Filter:  cfg.Filter,
		Force:   cfg.Force,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	m, err := manifest.Open(ctx, cfg.ManifestDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open manifest: %w", err)
	}
	if err := m.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload manifest")
	} else if cfg.ManifestDSN != "" {
		log.Info().Int("records", m.Len()).Msg("Loaded build manifest")
	}

	builder := pipeline.NewBuilder(walker, m, pipeline.Options{
		Workers: cfg.WorkerCount,
		Force:   cfg.Force,
	})
	return walker, builder, m, nil
}

// runBuild handles the `build` command.
func runBuild(cfg *config.Config) error {
	ctx, cancel := setupContext()
	defer cancel()

	_, builder, m, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info().
		Str("source", cfg.SourceDir).
		Str("output", cfg.OutputDir).
		Bool("force", cfg.Force).
		Msg("Starting build")

	_, _, err = builder.Run(ctx, cfg.SourceDir, cfg.OutputDir)
	return err
}

// runWatch handles the `watch` command.
func runWatch(cfg *config.Config) error {
	ctx, cancel := setupContext()
	defer cancel()

	walker, builder, m, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, _, err := builder.Run(ctx, cfg.SourceDir, cfg.OutputDir); err != nil {
		log.Warn().Err(err).Msg("Initial build incomplete")
	}

	root, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}

	w, err := watch.New(root, time.Duration(cfg.WatchDebounceMS)*time.Millisecond,
		func(ctx context.Context, paths []string) {
			var entries []filewalker.FileEntry
			for _, p := range paths {
				entry, ok, err := walker.Entry(root, p, cfg.OutputDir)
				if err != nil {
					log.Warn().Err(err).Str("file", p).Msg("Ignoring changed file")
					continue
				}
				if !ok {
					continue
				}
				// The change itself is the reason to rebuild.
				entry.Skip = false
				entries = append(entries, entry)
			}
			if len(entries) == 0 {
				return
			}
			if _, _, err := builder.BuildEntries(ctx, entries); err != nil {
				log.Warn().Err(err).Msg("Rebuild incomplete")
			}
		})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	log.Info().Str("source", root).Msg("Watching for changes")
	return w.Run(ctx)
}
