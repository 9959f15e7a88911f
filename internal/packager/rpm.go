package packager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sassoftware/go-rpmutils"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

// RpmPackager emits RedHat-family packages.
type RpmPackager struct{}

func init() {
	Register(&RpmPackager{})
}

func (p *RpmPackager) Name() string { return "rpm" }

func (p *RpmPackager) Supports(tag system.OsTag) bool {
	switch tag.Distro {
	case "centos", "redhat", "fedora", "rocky", "almalinux", "scientific", "oracle", "amzn", "opensuse", "sles":
		return true
	}
	return false
}

// Dependencies is fixed for the RedHat family; the distro-version naming
// churn lives on the Debian side.
func (p *RpmPackager) Dependencies(tag system.OsTag) ([]string, error) {
	return []string{
		"libcurl",
		"subversion",
		"cyrus-sasl-md5",
		"apr",
	}, nil
}

// osCode is the dist tag used as iteration suffix and in the filename:
// centos/8 -> el8, fedora/31 -> fc31, opensuse/15 -> suse15.
func (p *RpmPackager) osCode(tag system.OsTag) string {
	switch tag.Distro {
	case "centos", "redhat", "rocky", "almalinux", "scientific", "oracle":
		return "el" + tag.Version
	case "fedora":
		return "fc" + tag.Version
	case "amzn":
		return "amzn" + tag.Version
	default:
		return "suse" + tag.Version
	}
}

func (p *RpmPackager) Emit(req config.BuildRequest, meta config.PackageMeta, tag system.OsTag, in Input) (*Result, error) {
	deps, err := p.Dependencies(tag)
	if err != nil {
		return nil, err
	}

	iteration := req.BuildVersion + "." + p.osCode(tag)

	filename := meta.Name + ".rpm"
	if req.Rename {
		filename = fmt.Sprintf("%s-%s-%s.%s.rpm", meta.Name, in.Version, iteration, in.Arch)
	}
	outPath := filepath.Join(in.OutputDir, filename)

	args := fpmArgs("rpm", meta, in, iteration, outPath, in.Arch, deps)
	if err := runFpm(in.FpmTool, args, outPath); err != nil {
		return nil, err
	}

	if in.Verify {
		if err := verifyRpm(outPath, meta.Name, in.Version); err != nil {
			return nil, err
		}
	}

	return &Result{
		Path:         outPath,
		Version:      in.Version,
		Iteration:    iteration,
		Arch:         in.Arch,
		Dependencies: deps,
	}, nil
}

// verifyRpm reads the emitted package header back and checks that name and
// version match what was requested, catching metadata mix-ups before the
// package leaves the build.
func verifyRpm(path, name, ver string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open emitted package %s: %w", path, err)
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return fmt.Errorf("failed to read emitted package %s: %w", path, err)
	}

	nevra, err := rpm.Header.GetNEVRA()
	if err != nil {
		return fmt.Errorf("failed to read package header of %s: %w", path, err)
	}
	if nevra.Name != name {
		return fmt.Errorf("emitted package name %q does not match requested %q", nevra.Name, name)
	}
	if nevra.Version != ver {
		return fmt.Errorf("emitted package version %q does not match requested %q", nevra.Version, ver)
	}
	log.Infof("Verified rpm header: %s-%s-%s.%s", nevra.Name, nevra.Version, nevra.Release, nevra.Arch)
	return nil
}
