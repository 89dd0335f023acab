package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nagater/rpmkit/internal/archive"
)

// Built-in defaults, overridable via the defaults file and flags.
const (
	DefaultPackager      = "Norihiro Kamae <fedora-obs-studio-plugins@nagater.net>"
	DefaultContainerHome = "/home/user"
	DefaultRelease       = "1"
	DefaultCompression   = archive.Bzip2
)

var (
	ErrSpecRequired      = errors.New("a spec template path is required")
	ErrBuildRootRequired = errors.New("a build root directory is required")
)

// Build is the configuration for a single build run. It is constructed
// once from flags and the defaults file and read-only afterwards,
// except for Name, which is derived from the spec template during spec
// preparation.
type Build struct {
	Spec         string
	Patches      []string
	DockerImages []string
	Native       bool
	BuildRoot    string
	Version      string
	Release      string
	Message      string
	OldRPM       string

	Packager      string
	ContainerHome string
	Compression   archive.Compression

	// Name is the package name parsed from the spec template's Name:
	// line. Empty until spec preparation runs.
	Name string
}

// Validate checks the parts of the configuration that must hold before
// any filesystem or subprocess work starts.
func (b *Build) Validate() error {
	if b.Spec == "" {
		return ErrSpecRequired
	}
	if b.BuildRoot == "" {
		return ErrBuildRootRequired
	}
	for _, patch := range b.Patches {
		if _, err := os.Stat(patch); err != nil {
			return fmt.Errorf("patch file: %w", err)
		}
	}
	return nil
}

// Defaults are per-user build defaults loaded from a YAML file.
type Defaults struct {
	Packager      string   `yaml:"packager"`
	ContainerHome string   `yaml:"container_home"`
	Release       string   `yaml:"release"`
	Compression   string   `yaml:"compression"`
	DockerImages  []string `yaml:"docker_images"`
}

// DefaultsPath returns the standard location of the defaults file.
func DefaultsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rpmkit", "defaults.yaml")
}

// LoadDefaults reads build defaults from path. When explicit is false
// the path is a probe of the standard location and a missing file
// yields empty defaults; when true, a missing file is an error.
func LoadDefaults(path string, explicit bool) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Defaults{}, nil
		}
		return nil, fmt.Errorf("read defaults file: %w", err)
	}

	var defaults Defaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return &defaults, nil
}
