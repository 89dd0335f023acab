package git

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nagater/rpmkit/internal/command"
)

// LatestTag returns the most recent tag reachable from HEAD, in its
// shortest unambiguous form. It fails when the repository has no tags
// or the git invocation itself fails.
func LatestTag(ctx context.Context, runner command.Runner, dir string) (string, error) {
	out, err := runner.Output(ctx, dir, "git", "describe", "--abbrev=0", "--tags")
	if err != nil {
		return "", fmt.Errorf("describe latest tag: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Archive writes a tar-format snapshot of HEAD to w, with every entry
// path placed under prefix. The prefix is given without a trailing
// slash; git requires one, so it is appended here.
func Archive(ctx context.Context, runner command.Runner, dir, prefix string, w io.Writer) error {
	err := runner.Stream(ctx, w, dir, "git",
		"archive", "--format=tar", "--prefix="+prefix+"/", "HEAD")
	if err != nil {
		return fmt.Errorf("archive HEAD: %w", err)
	}
	return nil
}
