package config

import (
	"fmt"
	"strings"
	"time"
)

// BuildRequest carries the per-run parameters. It is assembled once from
// command-line input and passed by value through the pipeline stages;
// nothing mutates it afterwards.
type BuildRequest struct {
	RepoURL        string
	Branch         string // explicit ref, wins over a ?ref= selector in RepoURL
	SrcDir         string
	BuildDir       string
	NominalVersion string
	BuildVersion   string
	ConfigureFlags string
	ExtraLibs      []string
	Prebuilt       bool
	Rename         bool
}

// RequestParams mirrors the CLI flags a build request is built from.
type RequestParams struct {
	RepoURL        string
	Branch         string
	SrcDir         string
	BuildDir       string
	NominalVersion string
	BuildVersion   string
	ConfigureFlags string
	ExtraLibs      string // semicolon-separated paths
	Prebuilt       bool
	Rename         bool
}

// NewBuildRequest validates the flag values and freezes them into a
// BuildRequest. The build version defaults to a timestamped iteration when
// not supplied, so rebuilds of the same upstream version stay
// distinguishable.
func NewBuildRequest(p RequestParams) (BuildRequest, error) {
	if p.RepoURL == "" {
		return BuildRequest{}, fmt.Errorf("repository URL is required")
	}
	if p.SrcDir == "" {
		return BuildRequest{}, fmt.Errorf("source directory is required")
	}
	if p.BuildDir == "" {
		return BuildRequest{}, fmt.Errorf("build directory is required")
	}

	buildVersion := p.BuildVersion
	if buildVersion == "" {
		buildVersion = "0.1." + time.Now().UTC().Format("20060102150405")
	}

	var extraLibs []string
	for _, lib := range strings.Split(p.ExtraLibs, ";") {
		lib = strings.TrimSpace(lib)
		if lib != "" {
			extraLibs = append(extraLibs, lib)
		}
	}

	return BuildRequest{
		RepoURL:        p.RepoURL,
		Branch:         p.Branch,
		SrcDir:         p.SrcDir,
		BuildDir:       p.BuildDir,
		NominalVersion: p.NominalVersion,
		BuildVersion:   buildVersion,
		ConfigureFlags: p.ConfigureFlags,
		ExtraLibs:      extraLibs,
		Prebuilt:       p.Prebuilt,
		Rename:         p.Rename,
	}, nil
}

// JavaDisabled reports whether Java support was explicitly switched off in
// the configure flags. The stager skips Java artifacts in that case.
func (r BuildRequest) JavaDisabled() bool {
	return strings.Contains(r.ConfigureFlags, "--disable-java")
}
