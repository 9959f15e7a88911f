// Package stage populates the staging root: it installs the build output
// under a DESTDIR and lays default configs, init scripts, compatibility
// symlinks and optional artifacts on top, mirroring the final installed
// filesystem of the package.
package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
	"github.com/mesosphere/mesos-package-composer/internal/utils/version"
)

var log = logger.Logger()

// Work-directory and quorum defaults only exist from this release on.
const workDirMinVersion = "0.23.0"

// Options are the inputs of one staging run.
type Options struct {
	Request   config.BuildRequest
	Tag       system.OsTag
	Version   string // upstream release version
	SrcDir    string
	BuildDir  string
	StageDir  string
	AssetsDir string
	Zookeeper string // default ZooKeeper connection string
}

// Run builds the staging tree. The staging dir is recreated from scratch so
// re-runs never see stale artifacts.
func Run(opts Options) error {
	if err := os.RemoveAll(opts.StageDir); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(opts.StageDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	stageAbs, err := filepath.Abs(opts.StageDir)
	if err != nil {
		return fmt.Errorf("failed to resolve staging directory: %w", err)
	}

	log.Infof("Installing into staging root %s", stageAbs)
	installCmd := fmt.Sprintf("make install DESTDIR=%s", stageAbs)
	if _, err := shell.ExecCmdWithStream(installCmd, false, opts.BuildDir, nil); err != nil {
		return fmt.Errorf("make install failed: %w", err)
	}

	if err := stageDocs(opts); err != nil {
		return err
	}
	if err := stageDefaults(opts); err != nil {
		return err
	}
	if err := stageCompatSymlinks(opts.StageDir); err != nil {
		return err
	}
	if err := stageInitScripts(opts); err != nil {
		return err
	}
	if err := stageExtraLibs(opts); err != nil {
		return err
	}
	if err := stageJavaArtifacts(opts); err != nil {
		return err
	}

	return nil
}

// stageDocs copies the upstream license files into the doc directory.
func stageDocs(opts Options) error {
	docDir := filepath.Join(opts.StageDir, "usr", "share", "doc", "mesos")
	if err := os.MkdirAll(docDir, 0755); err != nil {
		return fmt.Errorf("failed to create doc directory: %w", err)
	}
	for _, name := range []string{"LICENSE", "NOTICE"} {
		src := filepath.Join(opts.SrcDir, name)
		if _, err := os.Stat(src); err != nil {
			log.Debugf("Doc file %s not present in checkout, skipping", name)
			continue
		}
		if err := copyFile(src, filepath.Join(docDir, name), 0644); err != nil {
			return fmt.Errorf("failed to stage doc file %s: %w", name, err)
		}
	}
	return nil
}

// stageDefaults lays down the static default env files, the ZooKeeper
// connection string, and (for releases that understand them) the master
// work-dir and quorum defaults.
func stageDefaults(opts Options) error {
	defaultDir := filepath.Join(opts.StageDir, "etc", "default")
	if err := os.MkdirAll(defaultDir, 0755); err != nil {
		return fmt.Errorf("failed to create etc/default: %w", err)
	}
	for _, name := range []string{"mesos", "mesos-master", "mesos-slave"} {
		src := filepath.Join(opts.AssetsDir, "default", name)
		if err := copyFile(src, filepath.Join(defaultDir, name), 0644); err != nil {
			return fmt.Errorf("failed to stage default file %s: %w", name, err)
		}
	}

	if err := writeConfigValue(opts.StageDir, filepath.Join("etc", "mesos", "zk"), opts.Zookeeper); err != nil {
		return err
	}

	gated, err := version.AtLeast(opts.Version, workDirMinVersion)
	if err != nil {
		return fmt.Errorf("invalid staged version %q: %w", opts.Version, err)
	}
	if !gated {
		return nil
	}

	if err := writeConfigValue(opts.StageDir, filepath.Join("etc", "mesos-master", "quorum"), "1"); err != nil {
		return err
	}
	if err := writeConfigValue(opts.StageDir, filepath.Join("etc", "mesos-master", "work_dir"), "/var/lib/mesos"); err != nil {
		return err
	}
	if err := writeConfigValue(opts.StageDir, filepath.Join("etc", "mesos-slave", "work_dir"), "/var/lib/mesos"); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(opts.StageDir, "var", "lib", "mesos"), 0755); err != nil {
		return fmt.Errorf("failed to create var/lib/mesos: %w", err)
	}
	return nil
}

// stageCompatSymlinks keeps the legacy usr/local/lib location working for
// tools built against older packages. Links are relative so they stay valid
// inside the final package regardless of install root.
func stageCompatSymlinks(stageDir string) error {
	legacyDir := filepath.Join(stageDir, "usr", "local", "lib")
	if _, err := os.Stat(legacyDir); err == nil {
		// A build that installs into usr/local/lib itself needs no links.
		return nil
	}

	libDir := filepath.Join(stageDir, "usr", "lib")
	entries, err := os.ReadDir(libDir)
	if err != nil {
		log.Debugf("No usr/lib in staging root, skipping compat symlinks")
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if matched, _ := filepath.Match("libmesos*", name); !matched {
			continue
		}
		if err := os.MkdirAll(legacyDir, 0755); err != nil {
			return fmt.Errorf("failed to create usr/local/lib: %w", err)
		}
		target := filepath.Join("..", "..", "lib", name)
		link := filepath.Join(legacyDir, name)
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("failed to create compat symlink %s: %w", link, err)
		}
		log.Debugf("Compat symlink %s -> %s", link, target)
	}
	return nil
}

// stageInitScripts copies exactly one init-script family, selected by the
// OsTag table.
func stageInitScripts(opts Options) error {
	family, err := initFamilyFor(opts.Tag)
	if err != nil {
		return err
	}
	if family == InitNone {
		log.Infof("No init scripts for %s", opts.Tag)
		return nil
	}
	log.Infof("Staging %s scripts for %s", family, opts.Tag)

	for src, dst := range initScriptFiles(family) {
		mode := os.FileMode(0644)
		if family == InitSysV {
			mode = 0755
		}
		srcPath := filepath.Join(opts.AssetsDir, src)
		dstPath := filepath.Join(opts.StageDir, dst)
		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			return fmt.Errorf("failed to create init script directory: %w", err)
		}
		if err := copyFile(srcPath, dstPath, mode); err != nil {
			return fmt.Errorf("failed to stage init script %s: %w", src, err)
		}
	}
	return nil
}

// stageExtraLibs copies user-supplied libraries into the package's private
// lib directory.
func stageExtraLibs(opts Options) error {
	if len(opts.Request.ExtraLibs) == 0 {
		return nil
	}
	libDir := filepath.Join(opts.StageDir, "usr", "lib", "mesos")
	if err := os.MkdirAll(libDir, 0755); err != nil {
		return fmt.Errorf("failed to create usr/lib/mesos: %w", err)
	}
	for _, lib := range opts.Request.ExtraLibs {
		dst := filepath.Join(libDir, filepath.Base(lib))
		if err := copyFile(lib, dst, 0644); err != nil {
			return fmt.Errorf("failed to stage extra library %s: %w", lib, err)
		}
		log.Infof("Staged extra library %s", lib)
	}
	return nil
}

// stageJavaArtifacts copies the mesos jars unless Java was disabled at
// configure time. The jar output location moved between upstream releases,
// so both layouts are probed and whichever exists is used.
func stageJavaArtifacts(opts Options) error {
	if opts.Request.JavaDisabled() {
		log.Infof("Java disabled in configure flags, skipping jar artifacts")
		return nil
	}

	candidates := []string{
		filepath.Join(opts.BuildDir, "src", "java", "target"),
		filepath.Join(opts.BuildDir, "src"),
	}

	var jars []string
	for _, dir := range candidates {
		matches, err := filepath.Glob(filepath.Join(dir, "mesos-*.jar"))
		if err == nil && len(matches) > 0 {
			jars = matches
			break
		}
	}
	if len(jars) == 0 {
		log.Warnf("No Java artifacts found in build output")
		return nil
	}

	javaDir := filepath.Join(opts.StageDir, "usr", "share", "java")
	if err := os.MkdirAll(javaDir, 0755); err != nil {
		return fmt.Errorf("failed to create usr/share/java: %w", err)
	}
	for _, jar := range jars {
		if err := copyFile(jar, filepath.Join(javaDir, filepath.Base(jar)), 0644); err != nil {
			return fmt.Errorf("failed to stage jar %s: %w", jar, err)
		}
		log.Infof("Staged Java artifact %s", filepath.Base(jar))
	}
	return nil
}

func writeConfigValue(stageDir, relPath, value string) error {
	path := filepath.Join(stageDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
