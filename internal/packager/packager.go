// Package packager turns a staging root into a distribution package by
// assembling metadata for the external fpm tool. One packager exists per
// package family; dispatch is purely by OsTag.
package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

var log = logger.Logger()

// Input carries everything an emit needs beyond the request itself.
type Input struct {
	Version   string // final package version, revision suffix already applied
	Arch      string // host architecture as reported by uname
	StageDir  string // staging root handed to fpm as the source tree
	HooksDir  string // lifecycle hook scripts (postinst, prerm, postrm)
	OutputDir string // where the package file lands
	FpmTool   string
	Verify    bool // read the emitted package back and check its metadata
}

// Result describes the emitted package.
type Result struct {
	Path         string
	Version      string
	Iteration    string
	Arch         string
	Dependencies []string
}

// Packager is the interface each package family implements.
type Packager interface {
	// Name is the family ID, e.g. "deb" or "rpm".
	Name() string

	// Supports reports whether this family packages the given OS.
	Supports(tag system.OsTag) bool

	// Dependencies returns the runtime dependency list for the OS.
	Dependencies(tag system.OsTag) ([]string, error)

	// Emit assembles metadata and invokes the packaging tool.
	Emit(req config.BuildRequest, meta config.PackageMeta, tag system.OsTag, in Input) (*Result, error)
}

var packagers []Packager

// Register makes a Packager available for dispatch.
func Register(p Packager) {
	packagers = append(packagers, p)
}

// ForTag returns the packager responsible for the OS tag. A tag no family
// claims is a fatal error naming the unsupported value.
func ForTag(tag system.OsTag) (Packager, error) {
	for _, p := range packagers {
		if p.Supports(tag) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no packaging path for OS %s", tag)
}

// quoteArg wraps an argument in quotes when it would otherwise split.
func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t'") {
		return strconv.Quote(s)
	}
	return s
}

// fpmArgs assembles the common fpm argument list shared by all families.
// arch is already in the target family's vocabulary.
func fpmArgs(target string, meta config.PackageMeta, in Input, iteration, outPath, arch string, deps []string) []string {
	args := []string{
		"--force",
		"-t", target,
		"-s", "dir",
		"-C", in.StageDir,
		"-n", meta.Name,
		"-v", in.Version,
		"--iteration", iteration,
		"--architecture", arch,
		"--description", quoteArg(meta.Description),
		"--url", meta.URL,
		"--license", quoteArg(meta.License),
		"--maintainer", quoteArg(meta.Maintainer),
	}

	for _, dep := range deps {
		args = append(args, "-d", quoteArg(dep))
	}

	hooks := map[string]string{
		"postinst": "--after-install",
		"prerm":    "--before-remove",
		"postrm":   "--after-remove",
	}
	for script, flag := range hooks {
		path := filepath.Join(in.HooksDir, script)
		if _, err := os.Stat(path); err == nil {
			args = append(args, flag, path)
		}
	}

	args = append(args, "-p", outPath, ".")
	return args
}

// runFpm removes any stale output file and invokes the packaging tool.
// Failure is fatal; there is no retry and no partial-success handling.
func runFpm(fpmTool string, args []string, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		log.Infof("Removing stale package file %s", outPath)
		if err := os.Remove(outPath); err != nil {
			return fmt.Errorf("failed to remove stale package %s: %w", outPath, err)
		}
	}

	cmd := fpmTool + " " + strings.Join(args, " ")
	log.Infof("Invoking packaging tool for %s", outPath)
	if _, err := shell.ExecCmdWithStream(cmd, false, shell.HostPath, nil); err != nil {
		return fmt.Errorf("packaging tool failed: %w", err)
	}
	return nil
}
