package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nagater/rpmkit/internal/archive"
	"github.com/nagater/rpmkit/internal/builder"
	"github.com/nagater/rpmkit/internal/command"
	"github.com/nagater/rpmkit/internal/config"
	"github.com/nagater/rpmkit/internal/git"
	"github.com/nagater/rpmkit/internal/logging"
	"github.com/nagater/rpmkit/internal/version"
)

const defaultLogLevel = "info"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	logLevel := defaultLogLevel

	root := &cobra.Command{
		Use:           "rpmkit",
		Short:         "Build RPM packages from a git checkout, natively or in docker containers",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		return nil
	}

	root.AddCommand(
		newBuildCommand(logger),
		newVersionCommand(),
	)
	return root
}

// buildFlags holds the raw flag values of the build command before
// they are resolved into a config.Build.
type buildFlags struct {
	spec         string
	patches      []string
	dockerImages []string
	native       bool
	buildRoot    string
	version      string
	release      string
	message      string
	oldRPM       string
	compression  string
	configFile   string
}

func newBuildCommand(logger *slog.Logger) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Prepare an rpmbuild tree from a spec template and run the requested builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := command.ExecRunner{}

			cfg, err := resolveConfig(cmd, &flags, runner)
			if err != nil {
				return err
			}

			service := builder.New(cfg, runner, logger.With("component", "builder"))
			return service.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&flags.spec, "spec", "", "Spec template path (required)")
	cmd.Flags().StringArrayVar(&flags.patches, "patch", nil, "Patch file to stage into SOURCES (repeatable)")
	cmd.Flags().StringArrayVar(&flags.dockerImages, "docker-image", nil, "Container image to build under (repeatable)")
	cmd.Flags().BoolVar(&flags.native, "native", false, "Also build directly on the host")
	cmd.Flags().StringVar(&flags.buildRoot, "rpmbuild", "", "Build root directory (required)")
	cmd.Flags().StringVar(&flags.version, "version", "", "Package version (default: latest git tag)")
	cmd.Flags().StringVar(&flags.release, "release", "", "Release field (default \"1\")")
	cmd.Flags().StringVar(&flags.message, "message", "", "Changelog message override")
	cmd.Flags().StringVar(&flags.oldRPM, "old-rpm", "", "Previously built package; derives the update message and appends its changelog")
	cmd.Flags().StringVar(&flags.compression, "compression", "", "Source archive compression: bz2, gz, or xz (default bz2)")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "Defaults file path")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.String())
			return nil
		},
	}
}

// resolveConfig merges flags over the defaults file over built-ins,
// derives the version from git when none was supplied, and validates
// the result before any build work starts.
func resolveConfig(cmd *cobra.Command, flags *buildFlags, runner command.Runner) (*config.Build, error) {
	defaultsPath := flags.configFile
	explicit := defaultsPath != ""
	if !explicit {
		defaultsPath = config.DefaultsPath()
	}
	defaults, err := config.LoadDefaults(defaultsPath, explicit)
	if err != nil {
		return nil, err
	}

	cfg := &config.Build{
		Spec:          flags.spec,
		Patches:       flags.patches,
		DockerImages:  flags.dockerImages,
		Native:        flags.native,
		BuildRoot:     flags.buildRoot,
		Version:       flags.version,
		Release:       pick(flags.release, defaults.Release, config.DefaultRelease),
		Message:       flags.message,
		OldRPM:        flags.oldRPM,
		Packager:      pick(defaults.Packager, config.DefaultPackager),
		ContainerHome: pick(defaults.ContainerHome, config.DefaultContainerHome),
	}

	if len(cfg.DockerImages) == 0 {
		cfg.DockerImages = defaults.DockerImages
	}

	compression := pick(flags.compression, defaults.Compression, string(config.DefaultCompression))
	cfg.Compression, err = archive.ParseCompression(compression)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Version == "" {
		cfg.Version, err = git.LatestTag(cmd.Context(), runner, "")
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
