package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nagater/rpmkit/internal/archive"
	"github.com/nagater/rpmkit/internal/buildroot"
	"github.com/nagater/rpmkit/internal/command"
	"github.com/nagater/rpmkit/internal/config"
	"github.com/nagater/rpmkit/internal/logging"
	"github.com/nagater/rpmkit/internal/specfile"
)

// Service runs the whole build sequence: prepare the build root, write
// the finalized spec file, stage patches, export the source archive,
// then hand the tree to each build driver in turn. Every step must
// succeed before the next runs; the first failure aborts the run and
// whatever was already written stays in place for inspection.
type Service struct {
	Config  *config.Build
	Runner  command.Runner
	Logger  *slog.Logger
	Drivers []Driver

	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

// New assembles a service with drivers derived from the configuration:
// one container driver per requested image, in the order given, then a
// native driver when requested.
func New(cfg *config.Build, runner command.Runner, logger *slog.Logger) *Service {
	logger = logging.Ensure(logger)

	drivers := make([]Driver, 0, len(cfg.DockerImages)+1)
	for _, image := range cfg.DockerImages {
		drivers = append(drivers, &DockerDriver{
			Image:  image,
			Home:   cfg.ContainerHome,
			Runner: runner,
			Logger: logger.With("driver", "docker"),
		})
	}
	if cfg.Native {
		drivers = append(drivers, &NativeDriver{
			Runner: runner,
			Logger: logger.With("driver", "native"),
		})
	}

	return &Service{
		Config:  cfg,
		Runner:  runner,
		Logger:  logger,
		Drivers: drivers,
	}
}

// Run executes the build sequence.
func (s *Service) Run(ctx context.Context) error {
	logger := logging.Ensure(s.Logger)
	cfg := s.Config

	root, err := buildroot.Prepare(cfg.BuildRoot)
	if err != nil {
		return err
	}
	defer root.Close()

	if err := s.prepare(ctx, root); err != nil {
		return err
	}

	logger = logger.With("package", cfg.Name, "version", cfg.Version)
	logger.Info("build root prepared", "path", cfg.BuildRoot)

	for _, driver := range s.Drivers {
		if err := driver.Build(ctx, root, cfg.Name); err != nil {
			return err
		}
	}

	logger.Info("build finished")
	return nil
}

// prepare writes the finalized spec file, stages patch files, and
// exports the compressed source archive into the build root.
func (s *Service) prepare(ctx context.Context, root *buildroot.Root) error {
	cfg := s.Config

	template, err := specfile.Load(cfg.Spec)
	if err != nil {
		return err
	}

	name, err := template.Name()
	if err != nil {
		return fmt.Errorf("%w: %s", err, cfg.Spec)
	}
	cfg.Name = name

	history := ""
	if cfg.OldRPM != "" {
		history, err = specfile.History(ctx, s.Runner, cfg.OldRPM)
		if err != nil {
			return err
		}
	}

	text := template.Render(specfile.RenderOptions{
		Version:  cfg.Version,
		Release:  cfg.Release,
		Packager: cfg.Packager,
		Message:  specfile.ChangeMessage(cfg.Message, cfg.OldRPM, cfg.Version),
		Now:      s.clock()(),
		History:  history,
	})
	if err := root.WriteSpec(name, text); err != nil {
		return err
	}

	if err := root.StagePatches(cfg.Patches); err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s-%s", name, cfg.Version)
	dest := root.SourcePath(prefix + "." + cfg.Compression.Ext())
	return archive.Create(ctx, s.Runner, "", prefix, dest, cfg.Compression)
}

func (s *Service) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}
