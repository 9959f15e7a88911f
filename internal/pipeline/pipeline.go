// Package pipeline runs the whole packaging flow end to end: detect the
// host, check out the source, build, stage, emit the package, and record
// what was built.
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/archive"
	"github.com/mesosphere/mesos-package-composer/internal/build"
	"github.com/mesosphere/mesos-package-composer/internal/checkout"
	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/manifest"
	"github.com/mesosphere/mesos-package-composer/internal/packager"
	"github.com/mesosphere/mesos-package-composer/internal/repourl"
	"github.com/mesosphere/mesos-package-composer/internal/signing"
	"github.com/mesosphere/mesos-package-composer/internal/stage"
	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
	"github.com/mesosphere/mesos-package-composer/internal/utils/version"
)

var log = logger.Logger()

// Options are the inputs of one pipeline run.
type Options struct {
	Config    *config.GlobalConfig
	Request   config.BuildRequest
	OutputDir string // where the package lands; "." when empty
}

// Outcome reports what a pipeline run produced.
type Outcome struct {
	Tag           system.OsTag
	Arch          string
	Version       string
	Package       *packager.Result
	ManifestPath  string
	ArchivePath   string
	SignaturePath string
}

// Run executes the packaging flow. The packaging path for the detected OS
// is resolved before anything is cloned or built.
func Run(opts Options) (*Outcome, error) {
	cfg := opts.Config
	req := opts.Request

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	tag, err := system.DetectOsTag()
	if err != nil {
		return nil, err
	}
	arch, err := system.DetectArch()
	if err != nil {
		return nil, err
	}

	pkgr, err := packager.ForTag(tag)
	if err != nil {
		return nil, err
	}
	log.Infof("Packaging for %s (%s) via %s", tag, arch, pkgr.Name())

	base, ref, err := repourl.Ref(req.RepoURL)
	if err != nil {
		return nil, err
	}
	if req.Branch != "" {
		// An explicit --branch wins over a ?ref= selector in the URL.
		ref = req.Branch
	}

	if err := checkout.Run(cfg.Tools.Git, base, ref, req.SrcDir); err != nil {
		return nil, err
	}

	ver, err := resolveVersion(req, cfg.Tools.Git, ref)
	if err != nil {
		return nil, err
	}
	log.Infof("Packaging version %s (build %s)", ver, req.BuildVersion)

	helpers := config.NewConfigHelpers(cfg)
	if err := helpers.CreateWorkDir(); err != nil {
		return nil, err
	}
	workDir, err := helpers.WorkDir()
	if err != nil {
		return nil, err
	}
	assetsDir, err := helpers.AssetsDir()
	if err != nil {
		return nil, err
	}

	if req.Prebuilt {
		log.Infof("Build directory marked prebuilt, skipping build")
	} else {
		err := build.Run(build.Options{
			SrcDir:     req.SrcDir,
			BuildDir:   req.BuildDir,
			Version:    baseVersion(ver),
			ExtraFlags: req.ConfigureFlags,
			Jobs:       helpers.Jobs(),
		})
		if err != nil {
			return nil, err
		}
	}

	stageDir := filepath.Join(workDir, "stage")
	err = stage.Run(stage.Options{
		Request:   req,
		Tag:       tag,
		Version:   baseVersion(ver),
		SrcDir:    req.SrcDir,
		BuildDir:  req.BuildDir,
		StageDir:  stageDir,
		AssetsDir: assetsDir,
		Zookeeper: cfg.ZookeeperConn,
	})
	if err != nil {
		return nil, err
	}

	res, err := pkgr.Emit(req, cfg.Package, tag, packager.Input{
		Version:   ver,
		Arch:      arch,
		StageDir:  stageDir,
		HooksDir:  filepath.Join(assetsDir, "hooks"),
		OutputDir: outputDir,
		FpmTool:   cfg.Tools.Fpm,
		Verify:    cfg.VerifyPackages,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Emitted package %s", res.Path)

	m, err := manifest.New(cfg.Package.Name, res.Version, res.Iteration, tag.String(), res.Arch, res.Dependencies, res.Path)
	if err != nil {
		return nil, err
	}
	manifestPath, err := m.Write(outputDir)
	if err != nil {
		return nil, err
	}
	log.Infof("Build %s complete", m.BuildID)

	outcome := &Outcome{
		Tag:          tag,
		Arch:         arch,
		Version:      ver,
		Package:      res,
		ManifestPath: manifestPath,
	}

	if cfg.ArchiveStaging {
		archivePath := filepath.Join(outputDir, archive.StagingName(cfg.Package.Name, ver, tag))
		if err := archive.Capture(stageDir, archivePath); err != nil {
			return nil, err
		}
		outcome.ArchivePath = archivePath
	}

	if cfg.SigningKey != "" {
		signer, err := signing.LoadSigner(cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		sigPath, err := signer.Sign(res.Path)
		if err != nil {
			return nil, err
		}
		outcome.SignaturePath = sigPath
	}

	return outcome, nil
}

// resolveVersion picks the package version: an explicit nominal version
// wins outright; otherwise the upstream version declared by the checkout
// is used, suffixed with the short commit when the checked-out ref is a
// branch rather than a release tag, so snapshot packages stay
// distinguishable from releases.
func resolveVersion(req config.BuildRequest, gitTool, ref string) (string, error) {
	if req.NominalVersion != "" {
		return req.NominalVersion, nil
	}

	ver, err := checkout.UpstreamVersion(req.SrcDir)
	if err != nil {
		return "", err
	}

	if ref != "" && !version.IsRelease(ref) {
		rev, err := checkout.HeadRevision(gitTool, req.SrcDir)
		if err != nil {
			return "", err
		}
		ver = ver + "~" + rev
	}
	return ver, nil
}

// baseVersion strips a snapshot suffix so flag gates compare the plain
// numeric release.
func baseVersion(ver string) string {
	base, _, _ := strings.Cut(ver, "~")
	return base
}
