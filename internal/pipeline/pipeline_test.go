package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

// packagingToolExecutor delegates to the mock and emulates the packaging
// tool writing its output file, so the manifest step has something to hash.
type packagingToolExecutor struct {
	mock *shell.MockExecutor
}

func (e *packagingToolExecutor) Exec(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	out, err := e.mock.Exec(cmdStr, sudo, workDir, envVal)
	if err == nil && strings.HasPrefix(cmdStr, "fpm ") {
		fields := strings.Fields(cmdStr)
		for i, f := range fields {
			if f == "-p" && i+1 < len(fields) {
				if werr := os.WriteFile(fields[i+1], []byte("package payload"), 0644); werr != nil {
					return "", werr
				}
			}
		}
	}
	return out, err
}

func withMockTools(t *testing.T, commands []shell.MockCommand) *shell.MockExecutor {
	t.Helper()
	original := shell.Default
	t.Cleanup(func() { shell.Default = original })
	mock := shell.NewMockExecutor(commands)
	shell.Default = &packagingToolExecutor{mock: mock}
	return mock
}

func withOsRelease(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	osRelease := filepath.Join(dir, "os-release")
	if err := os.WriteFile(osRelease, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	origOs, origRedhat := system.OsReleaseFile, system.RedhatReleaseFile
	t.Cleanup(func() {
		system.OsReleaseFile, system.RedhatReleaseFile = origOs, origRedhat
	})
	system.OsReleaseFile = osRelease
	system.RedhatReleaseFile = filepath.Join(dir, "redhat-release")
}

func writeSource(t *testing.T, dir, acVersion string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	ac := "AC_INIT([mesos], [" + acVersion + "])\n"
	if err := os.WriteFile(filepath.Join(dir, "configure.ac"), []byte(ac), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"LICENSE", "NOTICE"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeAssets(t *testing.T) string {
	t.Helper()
	assets := t.TempDir()
	for _, sub := range []string{"default", "systemd", "init.d", "upstart", "hooks"} {
		if err := os.MkdirAll(filepath.Join(assets, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		filepath.Join("default", "mesos"):                 "LOGS=/var/log/mesos\n",
		filepath.Join("default", "mesos-master"):          "PORT=5050\n",
		filepath.Join("default", "mesos-slave"):           "MASTER=`cat /etc/mesos/zk`\n",
		filepath.Join("systemd", "mesos-master.service"):  "[Unit]\n",
		filepath.Join("systemd", "mesos-slave.service"):   "[Unit]\n",
		filepath.Join("init.d", "mesos-master"):           "#!/bin/sh\n",
		filepath.Join("init.d", "mesos-slave"):            "#!/bin/sh\n",
		filepath.Join("upstart", "mesos-master.conf"):     "description \"mesos master\"\n",
		filepath.Join("upstart", "mesos-slave.conf"):      "description \"mesos slave\"\n",
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(assets, rel), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return assets
}

func testConfig(t *testing.T) *config.GlobalConfig {
	t.Helper()
	cfg := config.DefaultGlobalConfig()
	cfg.WorkDir = t.TempDir()
	cfg.AssetsDir = writeAssets(t)
	cfg.VerifyPackages = false
	return cfg
}

func TestRunEmitsRenamedRpm(t *testing.T) {
	withOsRelease(t, "ID=\"centos\"\nVERSION_ID=\"8\"\n")
	mock := withMockTools(t, []shell.MockCommand{
		{Pattern: "uname -m", Output: "x86_64\n"},
		{Pattern: "make install", Output: ""},
		{Pattern: "fpm ", Output: "Created package\n"},
	})

	srcDir := filepath.Join(t.TempDir(), "mesos-src")
	writeSource(t, srcDir, "1.7.3")

	cfg := testConfig(t)
	outputDir := t.TempDir()

	req, err := config.NewBuildRequest(config.RequestParams{
		RepoURL:      "https://github.com/apache/mesos.git?ref=1.7.3",
		SrcDir:       srcDir,
		BuildDir:     filepath.Join(cfg.WorkDir, "build"),
		BuildVersion: "0.2.0",
		Prebuilt:     true,
		Rename:       true,
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := Run(Options{Config: cfg, Request: req, OutputDir: outputDir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	expected := "mesos-1.7.3-0.2.0.el8.x86_64.rpm"
	if filepath.Base(outcome.Package.Path) != expected {
		t.Errorf("Expected package %s, got %s", expected, filepath.Base(outcome.Package.Path))
	}
	if _, err := os.Stat(outcome.Package.Path); err != nil {
		t.Errorf("Expected package file on disk: %v", err)
	}
	if _, err := os.Stat(outcome.ManifestPath); err != nil {
		t.Errorf("Expected manifest on disk: %v", err)
	}

	// The staging tree carried the defaults before packaging.
	zk, err := os.ReadFile(filepath.Join(cfg.WorkDir, "stage", "etc", "mesos", "zk"))
	if err != nil {
		t.Fatalf("Expected staged zk file: %v", err)
	}
	if strings.TrimSpace(string(zk)) != cfg.ZookeeperConn {
		t.Errorf("Unexpected zk contents: %s", zk)
	}

	// Prebuilt skips configure and make, but not the install step.
	if mock.CalledWith("configure") {
		t.Errorf("Did not expect a configure call for a prebuilt tree: %v", mock.Calls)
	}
	if !mock.CalledWith("make install") {
		t.Errorf("Expected make install, got: %v", mock.Calls)
	}
}

func TestRunSnapshotVersionSuffix(t *testing.T) {
	withOsRelease(t, "ID=\"centos\"\nVERSION_ID=\"8\"\n")
	withMockTools(t, []shell.MockCommand{
		{Pattern: "uname -m", Output: "x86_64\n"},
		{Pattern: "rev-parse --short HEAD", Output: "abc1234\n"},
		{Pattern: "make install", Output: ""},
		{Pattern: "fpm ", Output: "Created package\n"},
	})

	srcDir := filepath.Join(t.TempDir(), "mesos-src")
	writeSource(t, srcDir, "1.8.0")

	cfg := testConfig(t)
	req, err := config.NewBuildRequest(config.RequestParams{
		RepoURL:      "https://github.com/apache/mesos.git",
		Branch:       "master",
		SrcDir:       srcDir,
		BuildDir:     filepath.Join(cfg.WorkDir, "build"),
		BuildVersion: "0.1.0",
		Prebuilt:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := Run(Options{Config: cfg, Request: req, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Version != "1.8.0~abc1234" {
		t.Errorf("Expected snapshot suffix on branch build, got %s", outcome.Version)
	}
}

func TestRunNominalVersionWins(t *testing.T) {
	withOsRelease(t, "ID=\"centos\"\nVERSION_ID=\"8\"\n")
	withMockTools(t, []shell.MockCommand{
		{Pattern: "uname -m", Output: "x86_64\n"},
		{Pattern: "make install", Output: ""},
		{Pattern: "fpm ", Output: "Created package\n"},
	})

	srcDir := filepath.Join(t.TempDir(), "mesos-src")
	writeSource(t, srcDir, "1.7.3")

	cfg := testConfig(t)
	req, err := config.NewBuildRequest(config.RequestParams{
		RepoURL:        "https://github.com/apache/mesos.git",
		Branch:         "master",
		SrcDir:         srcDir,
		BuildDir:       filepath.Join(cfg.WorkDir, "build"),
		NominalVersion: "2.0.0",
		BuildVersion:   "0.1.0",
		Prebuilt:       true,
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := Run(Options{Config: cfg, Request: req, OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Version != "2.0.0" {
		t.Errorf("Expected nominal version to win, got %s", outcome.Version)
	}
}

func TestRunUnsupportedOsFailsBeforeClone(t *testing.T) {
	withOsRelease(t, "ID=\"gentoo\"\nVERSION_ID=\"2\"\n")
	mock := withMockTools(t, []shell.MockCommand{
		{Pattern: "uname -m", Output: "x86_64\n"},
	})

	cfg := testConfig(t)
	req, err := config.NewBuildRequest(config.RequestParams{
		RepoURL:  "https://github.com/apache/mesos.git",
		SrcDir:   filepath.Join(t.TempDir(), "never-cloned"),
		BuildDir: filepath.Join(cfg.WorkDir, "build"),
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Run(Options{Config: cfg, Request: req, OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("Expected unsupported OS to fail the run")
	}
	if !strings.Contains(err.Error(), "gentoo/2") {
		t.Errorf("Expected error naming the OS tag, got: %v", err)
	}
	if mock.CalledWith("clone") {
		t.Errorf("Expected no clone for an unsupported OS, got: %v", mock.Calls)
	}
}

func TestRunRejectsFragmentUrl(t *testing.T) {
	withOsRelease(t, "ID=\"centos\"\nVERSION_ID=\"8\"\n")
	withMockTools(t, []shell.MockCommand{
		{Pattern: "uname -m", Output: "x86_64\n"},
	})

	cfg := testConfig(t)
	req, err := config.NewBuildRequest(config.RequestParams{
		RepoURL:  "https://github.com/apache/mesos.git#1.7.3",
		SrcDir:   filepath.Join(t.TempDir(), "src"),
		BuildDir: filepath.Join(cfg.WorkDir, "build"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(Options{Config: cfg, Request: req, OutputDir: t.TempDir()}); err == nil {
		t.Error("Expected fragment URL to be rejected")
	}
}
