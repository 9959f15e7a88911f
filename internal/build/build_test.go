package build_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesosphere/mesos-package-composer/internal/build"
	"github.com/mesosphere/mesos-package-composer/internal/utils/shell"
)

func TestConfigureArgs(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		extraFlags string
		want       []string
		notWant    []string
	}{
		{
			name:    "legacy_prerelease_gets_compat_flag",
			version: "0.19.0",
			want:    []string{"--without-cxx11"},
			notWant: []string{"--enable-optimize"},
		},
		{
			name:    "below_threshold_no_optimize",
			version: "0.21.9",
			notWant: []string{"--enable-optimize", "--without-cxx11"},
		},
		{
			name:    "threshold_enables_optimize",
			version: "0.22.0",
			want:    []string{"--enable-optimize"},
			notWant: []string{"--without-cxx11"},
		},
		{
			name:    "modern_release",
			version: "1.7.3",
			want:    []string{"--enable-optimize"},
		},
		{
			name:       "extra_flags_appended",
			version:    "1.7.3",
			extraFlags: "--enable-ssl --enable-libevent",
			want:       []string{"--enable-ssl", "--enable-libevent"},
		},
		{
			name:    "short_version_padded",
			version: "0.22",
			want:    []string{"--enable-optimize"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := build.ConfigureArgs(tt.version, tt.extraFlags)
			if err != nil {
				t.Fatalf("ConfigureArgs failed: %v", err)
			}

			if args[0] != "--prefix=/usr" {
				t.Errorf("Expected --prefix=/usr first, got: %v", args)
			}
			if args[len(args)-1] != "--disable-python-dependency-install" {
				t.Errorf("Expected dependency-install guard last, got: %v", args)
			}

			joined := strings.Join(args, " ")
			for _, flag := range tt.want {
				if !strings.Contains(joined, flag) {
					t.Errorf("Expected flag %s in: %s", flag, joined)
				}
			}
			for _, flag := range tt.notWant {
				if strings.Contains(joined, flag) {
					t.Errorf("Unexpected flag %s in: %s", flag, joined)
				}
			}
		})
	}
}

func TestConfigureArgsInvalidVersion(t *testing.T) {
	if _, err := build.ConfigureArgs("1.7.3-rc1", ""); err == nil {
		t.Error("Expected error for non-numeric version")
	}
}

func TestRun(t *testing.T) {
	original := shell.Default
	defer func() { shell.Default = original }()

	mock := shell.NewMockExecutor([]shell.MockCommand{
		{Pattern: "./bootstrap", Output: "", Error: nil},
		{Pattern: "configure", Output: "", Error: nil},
		{Pattern: "make -j3", Output: "", Error: nil},
	})
	shell.Default = mock

	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "bootstrap"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	buildDir := filepath.Join(t.TempDir(), "build")

	err := build.Run(build.Options{
		SrcDir:     srcDir,
		BuildDir:   buildDir,
		Version:    "1.7.3",
		ExtraFlags: "--enable-ssl",
		Jobs:       3,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !mock.CalledWith("./bootstrap") {
		t.Error("Expected bootstrap call")
	}
	if !mock.CalledWith("--prefix=/usr") || !mock.CalledWith("--enable-ssl") {
		t.Errorf("Expected configure flags in calls: %v", mock.Calls)
	}
	if !mock.CalledWith("make -j3") {
		t.Error("Expected make call")
	}
	if _, err := os.Stat(buildDir); err != nil {
		t.Error("Expected build directory to be created")
	}
}

func TestRunAutoreconfFallback(t *testing.T) {
	original := shell.Default
	defer func() { shell.Default = original }()

	mock := shell.NewMockExecutor([]shell.MockCommand{
		{Pattern: "autoreconf", Output: "", Error: nil},
		{Pattern: "configure", Output: "", Error: nil},
		{Pattern: "make", Output: "", Error: nil},
	})
	shell.Default = mock

	err := build.Run(build.Options{
		SrcDir:   t.TempDir(), // no bootstrap script
		BuildDir: filepath.Join(t.TempDir(), "build"),
		Version:  "1.7.3",
		Jobs:     1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !mock.CalledWith("autoreconf") {
		t.Error("Expected autoreconf fallback")
	}
}

func TestRunConfigureFailureFatal(t *testing.T) {
	original := shell.Default
	defer func() { shell.Default = original }()

	shell.Default = shell.NewMockExecutor([]shell.MockCommand{
		{Pattern: "autoreconf", Output: "", Error: nil},
		{Pattern: "configure", Output: "checking...\n", Error: fmt.Errorf("missing libcurl")},
	})

	err := build.Run(build.Options{
		SrcDir:   t.TempDir(),
		BuildDir: filepath.Join(t.TempDir(), "build"),
		Version:  "1.7.3",
		Jobs:     1,
	})
	if err == nil || !strings.Contains(err.Error(), "configure failed") {
		t.Errorf("Expected configure failure, got: %v", err)
	}
}
