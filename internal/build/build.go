// Package build drives the upstream autotools build: regenerate the build
// scripts, configure with version-gated flags, and run make. Every failure
// is fatal; the pipeline never retries a build step.
package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
	"github.com/mesosphere/mesos-package-composer/internal/utils/version"
)

var log = logger.Logger()

const (
	// The 0.19.0 pre-release line predates the C++11 toolchain switch and
	// needs the compatibility flag; nothing else does.
	legacyCxxVersion = "0.19.0"

	// Optimized builds are safe from 0.22.0 on.
	optimizeMinVersion = "0.22.0"
)

// Options are the inputs of one build.
type Options struct {
	SrcDir     string
	BuildDir   string
	Version    string // upstream release version, gates configure flags
	ExtraFlags string // user-supplied configure flags, appended verbatim
	Jobs       int
}

// ConfigureArgs assembles the configure invocation: a fixed prefix, the
// legacy compatibility flag for the one pre-release that needs it, the
// optimization flag at or above the threshold release, any user extras,
// and the flag keeping the build from installing dependencies over system
// packages (always present).
func ConfigureArgs(ver, extraFlags string) ([]string, error) {
	args := []string{"--prefix=/usr"}

	legacy, err := version.Equal(ver, legacyCxxVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", ver, err)
	}
	if legacy {
		args = append(args, "--without-cxx11")
	}

	optimize, err := version.AtLeast(ver, optimizeMinVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", ver, err)
	}
	if optimize {
		args = append(args, "--enable-optimize")
	}

	args = append(args, strings.Fields(extraFlags)...)
	args = append(args, "--disable-python-dependency-install")
	return args, nil
}

// Run regenerates the build scripts in the source tree, configures an
// out-of-tree build in opts.BuildDir, and runs make.
func Run(opts Options) error {
	if err := bootstrap(opts.SrcDir); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.BuildDir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory %s: %w", opts.BuildDir, err)
	}

	args, err := ConfigureArgs(opts.Version, opts.ExtraFlags)
	if err != nil {
		return err
	}

	srcAbs, err := filepath.Abs(opts.SrcDir)
	if err != nil {
		return fmt.Errorf("failed to resolve source directory: %w", err)
	}

	configureCmd := filepath.Join(srcAbs, "configure") + " " + strings.Join(args, " ")
	log.Infof("Configuring mesos %s", opts.Version)
	if _, err := shell.ExecCmdWithStream(configureCmd, false, opts.BuildDir, nil); err != nil {
		return fmt.Errorf("configure failed: %w", err)
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	log.Infof("Building with make -j%d", jobs)
	if _, err := shell.ExecCmdWithStream(fmt.Sprintf("make -j%d", jobs), false, opts.BuildDir, nil); err != nil {
		return fmt.Errorf("make failed: %w", err)
	}

	return nil
}

// bootstrap regenerates configure. Upstream ships a bootstrap script;
// fall back to autoreconf when a checkout lacks it.
func bootstrap(srcDir string) error {
	script := filepath.Join(srcDir, "bootstrap")
	cmd := "autoreconf -f -i -Wall,no-obsolete"
	if _, err := os.Stat(script); err == nil {
		cmd = "./bootstrap"
	}

	log.Infof("Regenerating build scripts in %s", srcDir)
	if _, err := shell.ExecCmdWithStream(cmd, false, srcDir, nil); err != nil {
		return fmt.Errorf("failed to regenerate build scripts: %w", err)
	}
	return nil
}
