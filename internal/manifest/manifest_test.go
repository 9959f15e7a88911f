package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePackageFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRecordsFileFacts(t *testing.T) {
	dir := t.TempDir()
	pkg := writePackageFile(t, dir, "mesos-1.7.3-1.el8.x86_64.rpm", "not really an rpm")

	m, err := New("mesos", "1.7.3", "1.el8", "centos/8", "x86_64", []string{"libcurl"}, pkg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if m.SchemaVersion != "1" {
		t.Errorf("Expected schema version 1, got %s", m.SchemaVersion)
	}
	if m.BuildID == "" {
		t.Error("Expected a build ID")
	}
	if m.OutputFile != "mesos-1.7.3-1.el8.x86_64.rpm" {
		t.Errorf("Expected base filename in manifest, got %s", m.OutputFile)
	}
	if m.SizeBytes != int64(len("not really an rpm")) {
		t.Errorf("Unexpected size: %d", m.SizeBytes)
	}
	if len(m.SHA256) != 64 {
		t.Errorf("Expected hex sha256, got %q", m.SHA256)
	}
}

func TestNewMissingFile(t *testing.T) {
	if _, err := New("mesos", "1.7.3", "1", "centos/8", "x86_64", nil, "/nonexistent/mesos.rpm"); err == nil {
		t.Error("Expected error for missing package file")
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pkg := writePackageFile(t, dir, "mesos.deb", "payload")

	m, err := New("mesos", "1.7.3", "1.ubuntu18", "ubuntu/18", "amd64", []string{"libcurl4", "zlib1g"}, pkg)
	if err != nil {
		t.Fatal(err)
	}

	path, err := m.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(path) != "mesos.deb.manifest.yaml" {
		t.Errorf("Unexpected manifest filename: %s", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.BuildID != m.BuildID || loaded.SHA256 != m.SHA256 || loaded.Iteration != m.Iteration {
		t.Errorf("Round trip mismatch: %+v vs %+v", loaded, m)
	}
	if len(loaded.Dependencies) != 2 {
		t.Errorf("Expected dependencies to survive, got %v", loaded.Dependencies)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	pkg := writePackageFile(t, dir, "mesos.rpm", "payload")

	m, err := New("mesos", "1.7.3", "1", "centos/8", "x86_64", nil, pkg)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Verify(dir); err != nil {
		t.Errorf("Expected verification to pass: %v", err)
	}

	if err := os.WriteFile(pkg, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	err = m.Verify(dir)
	if err == nil {
		t.Fatal("Expected verification failure after rewrite")
	}
	if !strings.Contains(err.Error(), "bytes") && !strings.Contains(err.Error(), "checksum") {
		t.Errorf("Unexpected verification error: %v", err)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	dir := t.TempDir()
	pkg := writePackageFile(t, dir, "mesos.rpm", "payload")

	m, err := New("mesos", "1.7.3", "1", "centos/8", "x86_64", nil, pkg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(pkg); err != nil {
		t.Fatal(err)
	}
	if err := m.Verify(dir); err == nil {
		t.Error("Expected error for missing package file")
	}
}
