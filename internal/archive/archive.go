// Package archive captures a staging root as a compressed tarball so the
// exact installed tree that went into a package can be inspected or diffed
// later without rebuilding.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

var log = logger.Logger()

// StagingName returns the archive filename for a staging capture,
// e.g. mesos-1.7.3-staging.centos8.tar.gz.
func StagingName(pkgName, version string, tag system.OsTag) string {
	osCode := tag.Distro + strings.ReplaceAll(tag.Version, ".", "")
	return fmt.Sprintf("%s-%s-staging.%s.tar.gz", pkgName, version, osCode)
}

// Capture writes a gzip-compressed tarball of the tree rooted at stageDir
// to outPath. Paths inside the archive are relative to stageDir. Symlinks
// are stored as links, not followed.
func Capture(stageDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", outPath, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	err = filepath.Walk(stageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(stageDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", path, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("failed to build tar header for %s: %w", path, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", rel, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to archive %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infof("Captured staging tree %s into %s", stageDir, outPath)
	return nil
}
