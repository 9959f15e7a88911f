package packager

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
	"github.com/mesosphere/mesos-package-composer/internal/utils/version"
)

// DebPackager emits Debian-family packages.
type DebPackager struct{}

func init() {
	Register(&DebPackager{})
}

func (p *DebPackager) Name() string { return "deb" }

func (p *DebPackager) Supports(tag system.OsTag) bool {
	switch tag.Distro {
	case "ubuntu", "debian", "raspbian", "linuxmint":
		return true
	}
	return false
}

// Dependencies is a pure function of the OS tag. The libcurl package was
// renamed between ubuntu 16 and 18 (and debian 9 and 10), hence the one
// version-dependent entry.
func (p *DebPackager) Dependencies(tag system.OsTag) ([]string, error) {
	libcurl := "libcurl3"
	switch tag.Distro {
	case "ubuntu":
		if ok, err := version.AtLeast(tag.Version, "18"); err == nil && ok {
			libcurl = "libcurl4"
		}
	case "debian", "raspbian":
		if ok, err := version.AtLeast(tag.Version, "10"); err == nil && ok {
			libcurl = "libcurl4"
		}
	}

	return []string{
		libcurl,
		"libsvn1",
		"libsasl2-2",
		"libsasl2-modules",
		"libapr1",
		"zlib1g",
	}, nil
}

// debArch maps uname machine names to dpkg architecture names.
func debArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	case "armv7l":
		return "armhf"
	case "i386", "i686":
		return "i386"
	default:
		return arch
	}
}

// osCode is the short OS code embedded in the iteration and the filename,
// e.g. ubuntu/18 -> ubuntu18.
func (p *DebPackager) osCode(tag system.OsTag) string {
	return tag.Distro + strings.ReplaceAll(tag.Version, ".", "")
}

func (p *DebPackager) Emit(req config.BuildRequest, meta config.PackageMeta, tag system.OsTag, in Input) (*Result, error) {
	deps, err := p.Dependencies(tag)
	if err != nil {
		return nil, err
	}

	iteration := req.BuildVersion + "." + p.osCode(tag)

	filename := meta.Name + ".deb"
	if req.Rename {
		filename = fmt.Sprintf("%s_%s-%s_%s.deb", meta.Name, in.Version, iteration, debArch(in.Arch))
	}
	outPath := filepath.Join(in.OutputDir, filename)

	args := fpmArgs("deb", meta, in, iteration, outPath, debArch(in.Arch), deps)
	if err := runFpm(in.FpmTool, args, outPath); err != nil {
		return nil, err
	}

	if in.Verify {
		if err := verifyDeb(outPath); err != nil {
			return nil, err
		}
	}

	return &Result{
		Path:         outPath,
		Version:      in.Version,
		Iteration:    iteration,
		Arch:         debArch(in.Arch),
		Dependencies: deps,
	}, nil
}

// verifyDeb reads the control metadata of the emitted package back with
// dpkg-deb. Skipped with a debug log when the tool is unavailable.
func verifyDeb(path string) error {
	exists, err := shell.IsCommandExist("dpkg-deb")
	if err != nil || !exists {
		log.Debugf("dpkg-deb not available, skipping package verification")
		return nil
	}
	output, err := shell.ExecCmd("dpkg-deb --info "+path, false, shell.HostPath, nil)
	if err != nil {
		return fmt.Errorf("emitted package %s failed verification: %w", path, err)
	}
	log.Debugf("Verified package metadata:\n%s", output)
	return nil
}
