package system

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
)

var (
	log = logger.Logger()

	// Release descriptor locations, overridable in tests.
	OsReleaseFile     = "/etc/os-release"
	RedhatReleaseFile = "/etc/redhat-release"
)

// OsTag is the normalized distro/version pair every downstream decision
// keys off: dependency lists, init-script family, package path, filenames.
type OsTag struct {
	Distro  string // lowercased distro ID, e.g. "centos", "ubuntu", "osx"
	Version string // major version; major.minor for osx
}

func (t OsTag) String() string {
	return t.Distro + "/" + t.Version
}

// ParseTag parses a "distro/version" string back into an OsTag.
func ParseTag(s string) (OsTag, error) {
	distro, version, found := strings.Cut(s, "/")
	if !found || distro == "" || version == "" {
		return OsTag{}, fmt.Errorf("malformed OS tag %q, expected distro/version", s)
	}
	return OsTag{Distro: strings.ToLower(distro), Version: version}, nil
}

// DetectArch returns the host CPU architecture via uname.
func DetectArch() (string, error) {
	output, err := shell.ExecCmd("uname -m", false, shell.HostPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get host architecture: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// DetectOsTag resolves the host OS tag. Detection strategies, in order:
// the structured os-release descriptor, the legacy redhat-release string,
// and the macOS version command. The first that succeeds wins; if all fail
// the error is fatal to the caller, since every later stage depends on the
// tag.
func DetectOsTag() (OsTag, error) {
	if tag, ok, err := fromOsRelease(); err != nil {
		return OsTag{}, err
	} else if ok {
		log.Infof("Detected OS: %s (os-release)", tag)
		return tag, nil
	}

	if tag, ok, err := fromRedhatRelease(); err != nil {
		return OsTag{}, err
	} else if ok {
		log.Infof("Detected OS: %s (redhat-release)", tag)
		return tag, nil
	}

	if tag, ok := fromSwVers(); ok {
		log.Infof("Detected OS: %s (sw_vers)", tag)
		return tag, nil
	}

	return OsTag{}, fmt.Errorf("failed to detect host OS: no os-release, redhat-release, or sw_vers")
}

// fromOsRelease parses the structured descriptor, reading ID and VERSION_ID.
func fromOsRelease() (OsTag, bool, error) {
	if _, err := os.Stat(OsReleaseFile); err != nil {
		return OsTag{}, false, nil
	}
	file, err := os.Open(OsReleaseFile)
	if err != nil {
		return OsTag{}, false, fmt.Errorf("failed to open %s: %w", OsReleaseFile, err)
	}
	defer file.Close()

	var id, versionID string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")
		switch key {
		case "ID":
			id = strings.ToLower(value)
		case "VERSION_ID":
			versionID = value
		}
	}
	if err := scanner.Err(); err != nil {
		return OsTag{}, false, fmt.Errorf("error reading %s: %w", OsReleaseFile, err)
	}
	if id == "" || versionID == "" {
		return OsTag{}, false, fmt.Errorf("incomplete %s: ID=%q VERSION_ID=%q", OsReleaseFile, id, versionID)
	}

	return normalizeTag(id, versionID), true, nil
}

// fromRedhatRelease parses legacy strings such as
// "CentOS Linux release 8.3.2011 (Core)".
func fromRedhatRelease() (OsTag, bool, error) {
	if _, err := os.Stat(RedhatReleaseFile); err != nil {
		return OsTag{}, false, nil
	}
	data, err := os.ReadFile(RedhatReleaseFile)
	if err != nil {
		return OsTag{}, false, fmt.Errorf("failed to read %s: %w", RedhatReleaseFile, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return OsTag{}, false, fmt.Errorf("empty %s", RedhatReleaseFile)
	}
	distro := strings.ToLower(fields[0])
	if distro == "red" {
		distro = "redhat"
	}
	for i, f := range fields {
		if f == "release" && i+1 < len(fields) {
			return normalizeTag(distro, fields[i+1]), true, nil
		}
	}
	return OsTag{}, false, fmt.Errorf("no release version in %s: %q", RedhatReleaseFile, strings.TrimSpace(string(data)))
}

// fromSwVers shells out to the macOS version command.
func fromSwVers() (OsTag, bool) {
	output, err := shell.ExecCmd("sw_vers -productVersion", false, shell.HostPath, nil)
	if err != nil {
		return OsTag{}, false
	}
	productVersion := strings.TrimSpace(output)
	if productVersion == "" {
		return OsTag{}, false
	}
	return normalizeTag("osx", productVersion), true
}

// normalizeTag lowercases the distro ID and trims the version to what the
// packaging tables key on: the major version for RedHat- and Debian-family
// distros, major.minor for osx, and the raw version for anything else.
func normalizeTag(id, version string) OsTag {
	id = strings.ToLower(id)

	switch id {
	case "rhel":
		id = "redhat"
	case "opensuse-leap", "opensuse-tumbleweed":
		id = "opensuse"
	}

	switch id {
	case "ubuntu", "debian", "raspbian", "linuxmint",
		"centos", "redhat", "fedora", "rocky", "almalinux", "scientific", "oracle", "amzn",
		"opensuse", "sles":
		version = majorVersion(version)
	case "osx":
		version = majorMinorVersion(version)
	}

	return OsTag{Distro: id, Version: version}
}

func majorVersion(version string) string {
	major, _, _ := strings.Cut(version, ".")
	return major
}

func majorMinorVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
