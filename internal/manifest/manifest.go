// Package manifest records what a pipeline run produced: the emitted
// package file, its checksum, and the inputs that shaped it. The manifest
// lands next to the package so downstream tooling can consume either.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
)

var log = logger.Logger()

const schemaVersion = "1"

// BuildManifest describes one emitted package.
type BuildManifest struct {
	SchemaVersion string    `json:"schemaVersion"`
	BuildID       string    `json:"buildId"`
	BuiltAt       time.Time `json:"builtAt"`
	Package       string    `json:"package"`
	Version       string    `json:"version"`
	Iteration     string    `json:"iteration"`
	OsTag         string    `json:"osTag"`
	Arch          string    `json:"arch"`
	Dependencies  []string  `json:"dependencies,omitempty"`
	OutputFile    string    `json:"outputFile"`
	SizeBytes     int64     `json:"sizeBytes"`
	SHA256        string    `json:"sha256"`
}

// New assembles a manifest for the package file at outputFile, hashing and
// sizing it in the process.
func New(pkgName, version, iteration, osTag, arch string, deps []string, outputFile string) (*BuildManifest, error) {
	info, err := os.Stat(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat package file %s: %w", outputFile, err)
	}

	sum, err := FileSHA256(outputFile)
	if err != nil {
		return nil, err
	}

	return &BuildManifest{
		SchemaVersion: schemaVersion,
		BuildID:       uuid.NewString(),
		BuiltAt:       time.Now().UTC(),
		Package:       pkgName,
		Version:       version,
		Iteration:     iteration,
		OsTag:         osTag,
		Arch:          arch,
		Dependencies:  deps,
		OutputFile:    filepath.Base(outputFile),
		SizeBytes:     info.Size(),
		SHA256:        sum,
	}, nil
}

// Write serializes the manifest as YAML next to the package file, named
// <package-file>.manifest.yaml.
func (m *BuildManifest) Write(dir string) (string, error) {
	data, err := sigsyaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest: %w", err)
	}

	path := filepath.Join(dir, m.OutputFile+".manifest.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	log.Infof("Wrote build manifest %s", path)
	return path, nil
}

// Load reads a manifest back. Used by the validate subcommand to check a
// previously emitted package against its recorded checksum.
func Load(path string) (*BuildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m BuildManifest
	if err := sigsyaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Verify re-hashes the package file the manifest names and compares size
// and checksum against the recorded values.
func (m *BuildManifest) Verify(dir string) error {
	path := filepath.Join(dir, m.OutputFile)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("manifest names missing package file %s: %w", path, err)
	}
	if info.Size() != m.SizeBytes {
		return fmt.Errorf("package file %s is %d bytes, manifest records %d", path, info.Size(), m.SizeBytes)
	}
	sum, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if sum != m.SHA256 {
		return fmt.Errorf("package file %s checksum %s does not match manifest %s", path, sum, m.SHA256)
	}
	return nil
}

// FileSHA256 returns the hex SHA-256 digest of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
