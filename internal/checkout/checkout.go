// Package checkout drives the source version-control system: clone,
// checkout, and the version/revision queries later stages consume.
package checkout

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
)

var log = logger.Logger()

// Run ensures srcDir holds a checkout of repoURL at ref. When srcDir
// already exists the existing checkout is trusted as-is and nothing is
// cloned or validated, so re-runs are cheap and offline.
func Run(gitTool, repoURL, ref, srcDir string) error {
	if _, err := os.Stat(srcDir); err == nil {
		log.Infof("Source directory %s exists, reusing checkout", srcDir)
		return nil
	}

	log.Infof("Cloning %s into %s", repoURL, srcDir)
	cloneCmd := fmt.Sprintf("%s clone %s %s", gitTool, repoURL, srcDir)
	if _, err := shell.ExecCmdWithStream(cloneCmd, false, shell.HostPath, nil); err != nil {
		return fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}

	if ref != "" {
		log.Infof("Checking out ref %s", ref)
		checkoutCmd := fmt.Sprintf("%s checkout %s", gitTool, ref)
		if _, err := shell.ExecCmd(checkoutCmd, false, srcDir, nil); err != nil {
			return fmt.Errorf("failed to check out ref %s: %w", ref, err)
		}
	}

	return nil
}

// HeadRevision returns the short commit identifier of the checkout.
func HeadRevision(gitTool, srcDir string) (string, error) {
	output, err := shell.ExecCmd(gitTool+" rev-parse --short HEAD", false, srcDir, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD revision in %s: %w", srcDir, err)
	}
	return strings.TrimSpace(output), nil
}

var acInitRe = regexp.MustCompile(`AC_INIT\(\s*\[[^\]]*\]\s*,\s*\[([^\]]+)\]`)

// UpstreamVersion reads the release version the checkout declares in its
// configure.ac AC_INIT line.
func UpstreamVersion(srcDir string) (string, error) {
	path := srcDir + "/configure.ac"
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	m := acInitRe.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("no AC_INIT version in %s", path)
	}
	return strings.TrimSpace(string(m[1])), nil
}
