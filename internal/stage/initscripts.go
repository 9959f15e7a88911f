package stage

import (
	"fmt"
	"path/filepath"

	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

// InitFamily selects which init-script payload a package ships.
type InitFamily int

const (
	InitNone InitFamily = iota // osx packages carry no init scripts
	InitSystemd
	InitSysV
	InitUpstart
)

func (f InitFamily) String() string {
	switch f {
	case InitSystemd:
		return "systemd"
	case InitSysV:
		return "init.d"
	case InitUpstart:
		return "upstart"
	default:
		return "none"
	}
}

// initFamilyFor is the fixed lookup table from OsTag to init family. A tag
// without an entry is a fatal error naming the unsupported value; guessing
// an init system for an unknown distro would produce a broken package.
func initFamilyFor(tag system.OsTag) (InitFamily, error) {
	switch tag.Distro {
	case "ubuntu":
		switch tag.Version {
		case "12", "13", "14":
			return InitUpstart, nil
		case "15", "16", "17", "18", "19", "20", "21", "22", "23", "24":
			return InitSystemd, nil
		}
	case "debian", "raspbian":
		switch tag.Version {
		case "7":
			return InitSysV, nil
		case "8", "9", "10", "11", "12", "13":
			return InitSystemd, nil
		}
	case "centos", "redhat", "rocky", "almalinux", "scientific", "oracle":
		switch tag.Version {
		case "6":
			return InitSysV, nil
		case "7", "8", "9":
			return InitSystemd, nil
		}
	case "fedora":
		return InitSystemd, nil
	case "amzn":
		return InitSystemd, nil
	case "opensuse", "sles":
		return InitSystemd, nil
	case "osx":
		return InitNone, nil
	}
	return InitNone, fmt.Errorf("no init scripts known for OS %s", tag)
}

// initScriptFiles maps each family to its asset files and their staged
// destinations, relative to the assets dir and the staging root.
func initScriptFiles(family InitFamily) map[string]string {
	switch family {
	case InitSystemd:
		return map[string]string{
			filepath.Join("systemd", "mesos-master.service"): filepath.Join("lib", "systemd", "system", "mesos-master.service"),
			filepath.Join("systemd", "mesos-slave.service"):  filepath.Join("lib", "systemd", "system", "mesos-slave.service"),
		}
	case InitSysV:
		return map[string]string{
			filepath.Join("init.d", "mesos-master"): filepath.Join("etc", "init.d", "mesos-master"),
			filepath.Join("init.d", "mesos-slave"):  filepath.Join("etc", "init.d", "mesos-slave"),
		}
	case InitUpstart:
		return map[string]string{
			filepath.Join("upstart", "mesos-master.conf"): filepath.Join("etc", "init", "mesos-master.conf"),
			filepath.Join("upstart", "mesos-slave.conf"):  filepath.Join("etc", "init", "mesos-slave.conf"),
		}
	default:
		return nil
	}
}
