package specfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/nagater/rpmkit/internal/command"
)

const (
	versionToken = "@VERSION@"
	releaseToken = "@RELEASE@"
	namePrefix   = "Name:"

	changelogDateLayout = "Mon Jan 02 2006"
)

// ErrNoName indicates the spec template declares no package name.
var ErrNoName = errors.New("spec template has no Name: line")

// Template is a spec file template read from disk. The raw text keeps
// its placeholder tokens; substitution happens during Render.
type Template struct {
	raw string
}

// Load reads a spec template from path.
func Load(path string) (*Template, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec template: %w", err)
	}
	return &Template{raw: string(text)}, nil
}

// Name extracts the package name from the template: the second
// whitespace-delimited field of the first line beginning with "Name:".
// Returns ErrNoName when no such line declares a name.
func (t *Template) Name() (string, error) {
	for _, line := range strings.Split(t.raw, "\n") {
		if !strings.HasPrefix(line, namePrefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", ErrNoName
		}
		return fields[1], nil
	}
	return "", ErrNoName
}

// RenderOptions carries the values substituted into a template.
type RenderOptions struct {
	Version  string
	Release  string
	Packager string // changelog identity line
	Message  string // changelog entry text
	Now      time.Time
	History  string // prior changelog appended after the new stanza
}

// Render substitutes the version and release tokens and appends a
// changelog stanza dated opts.Now. When opts.History is non-empty it is
// appended after the stanza, separated by a blank line.
func (t *Template) Render(opts RenderOptions) string {
	spec := strings.ReplaceAll(t.raw, versionToken, opts.Version)
	spec = strings.ReplaceAll(spec, releaseToken, opts.Release)

	spec += fmt.Sprintf("\n%%changelog\n* %s %s - %s-%s\n- %s\n",
		opts.Now.Format(changelogDateLayout),
		opts.Packager,
		opts.Version,
		opts.Release,
		opts.Message,
	)

	if opts.History != "" {
		spec = strings.TrimRightFunc(spec, unicode.IsSpace) + "\n\n" + opts.History
	}

	return spec
}

// ChangeMessage resolves the changelog entry text. An explicit message
// always wins; otherwise an update message is synthesized when a prior
// package is available for comparison, and a generic fallback is used
// when nothing else applies.
func ChangeMessage(message, oldRPM, version string) string {
	switch {
	case message != "":
		return message
	case oldRPM != "":
		return fmt.Sprintf("Update to %s", version)
	default:
		return "Package using script."
	}
}

// History queries the changelog embedded in a previously built package.
func History(ctx context.Context, runner command.Runner, rpmPath string) (string, error) {
	out, err := runner.Output(ctx, "", "rpm", "-q", "--changelog", rpmPath)
	if err != nil {
		return "", fmt.Errorf("query changelog of %s: %w", rpmPath, err)
	}
	return string(out), nil
}
