package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nagater/rpmkit/internal/buildroot"
	"github.com/nagater/rpmkit/internal/command"
	"github.com/nagater/rpmkit/internal/logging"
)

// DockerDriver builds the spec inside an ephemeral container. The build
// root is bind-mounted at <Home>/rpmbuild so the image's default user
// finds it in the usual place.
type DockerDriver struct {
	Image  string
	Home   string
	Runner command.Runner
	Logger *slog.Logger
}

func (d *DockerDriver) Build(ctx context.Context, root *buildroot.Root, name string) error {
	logger := logging.Ensure(d.Logger).With("image", d.Image)

	scratch, err := os.MkdirTemp("", "rpmkit-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	script := filepath.Join(scratch, "run.sh")
	if err := os.WriteFile(script, []byte(buildScript(name)), 0o755); err != nil {
		return fmt.Errorf("write build script: %w", err)
	}

	rootAbs, err := root.Abs()
	if err != nil {
		return err
	}

	containerName := fmt.Sprintf("rpmkit-build-%s", uuid.New().String()[:8])
	args := dockerArgs(scratch, rootAbs, d.Home, d.Image, containerName, script)

	logger.Info("building in container", "container", containerName)
	if err := d.Runner.Run(ctx, "", "docker", args...); err != nil {
		return fmt.Errorf("container build on %s: %w", d.Image, err)
	}

	logger.Info("container build finished")
	return nil
}

// buildScript returns the shell script run inside the container: it
// installs the packaging toolchain, resolves the spec's declared build
// dependencies, and runs rpmbuild in build-all mode. set -e makes any
// failed step surface as a non-zero container exit.
func buildScript(name string) string {
	return fmt.Sprintf(`#!/usr/bin/bash
set -e
sudo dnf install -y git createrepo gpg rpm-sign rpm-build
sudo dnf builddep -y rpmbuild/SPECS/%[1]s.spec
rpmbuild -ba rpmbuild/SPECS/%[1]s.spec
`, name)
}

// dockerArgs assembles the docker run invocation: the scratch directory
// is mounted at its own path so the script's location is valid inside
// the container, and the build root lands under the container home.
func dockerArgs(scratch, rootAbs, home, image, containerName, script string) []string {
	return []string{
		"run",
		"--name", containerName,
		"-v", scratch + ":" + scratch,
		"-v", rootAbs + ":" + home + "/rpmbuild",
		"--rm",
		image,
		script,
	}
}
