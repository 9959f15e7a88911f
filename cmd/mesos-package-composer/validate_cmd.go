package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/manifest"
)

// createValidateCommand creates the validate subcommand. With a config
// file argument it checks the file against the schema; with a manifest it
// re-hashes the package the manifest names.
func createValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a config file or check a build manifest against its package",
		Long: `Validate inspects the given file. A YAML config file is checked
against the configuration schema. A *.manifest.yaml file emitted by a
build is loaded and the package file it names is re-hashed and compared
against the recorded size and checksum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			if isManifest(path) {
				m, err := manifest.Load(path)
				if err != nil {
					return err
				}
				if err := m.Verify(filepath.Dir(path)); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: package %s verified (sha256 %s)\n", path, m.OutputFile, m.SHA256)
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			if err := config.ValidateConfigYAML(data); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: valid config\n", path)
			return nil
		},
	}
}

func isManifest(path string) bool {
	base := filepath.Base(path)
	matched, _ := filepath.Match("*.manifest.yaml", base)
	return matched
}
