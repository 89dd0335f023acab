package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nagater/rpmkit/internal/buildroot"
	"github.com/nagater/rpmkit/internal/command"
	"github.com/nagater/rpmkit/internal/logging"
)

// NativeDriver builds the spec with rpmbuild on the host, pointing its
// top directory at the build root.
type NativeDriver struct {
	Runner command.Runner
	Logger *slog.Logger
}

func (d *NativeDriver) Build(ctx context.Context, root *buildroot.Root, name string) error {
	logger := logging.Ensure(d.Logger)

	rootAbs, err := root.Abs()
	if err != nil {
		return err
	}

	logger.Info("building on host", "topdir", rootAbs)
	err = d.Runner.Run(ctx, "", "rpmbuild",
		"--define", "_topdir "+rootAbs,
		"-ba",
		filepath.Join(rootAbs, "SPECS", name+".spec"),
	)
	if err != nil {
		return fmt.Errorf("native build: %w", err)
	}

	logger.Info("native build finished")
	return nil
}
