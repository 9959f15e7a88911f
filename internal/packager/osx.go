package packager

import (
	"fmt"
	"path/filepath"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

// OsxPackager emits macOS installer packages. Marginal: no dependency
// list, no init scripts, no post-emit verification.
type OsxPackager struct{}

func init() {
	Register(&OsxPackager{})
}

func (p *OsxPackager) Name() string { return "osxpkg" }

func (p *OsxPackager) Supports(tag system.OsTag) bool {
	return tag.Distro == "osx"
}

func (p *OsxPackager) Dependencies(tag system.OsTag) ([]string, error) {
	return nil, nil
}

func (p *OsxPackager) Emit(req config.BuildRequest, meta config.PackageMeta, tag system.OsTag, in Input) (*Result, error) {
	iteration := req.BuildVersion

	filename := meta.Name + ".pkg"
	if req.Rename {
		filename = fmt.Sprintf("%s-%s-%s.pkg", meta.Name, in.Version, iteration)
	}
	outPath := filepath.Join(in.OutputDir, filename)

	args := fpmArgs("osxpkg", meta, in, iteration, outPath, in.Arch, nil)
	args = append([]string{"--osxpkg-identifier-prefix", "org.apache"}, args...)
	if err := runFpm(in.FpmTool, args, outPath); err != nil {
		return nil, err
	}

	return &Result{
		Path:      outPath,
		Version:   in.Version,
		Iteration: iteration,
		Arch:      in.Arch,
	}, nil
}
