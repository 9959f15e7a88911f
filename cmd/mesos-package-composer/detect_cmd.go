package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesosphere/mesos-package-composer/internal/packager"
	"github.com/mesosphere/mesos-package-composer/internal/utils/system"
)

// createDetectCommand creates the detect subcommand: print what the
// pipeline would decide about the host without building anything.
func createDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show the detected host OS, architecture, and packaging path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := system.DetectOsTag()
			if err != nil {
				return err
			}
			arch, err := system.DetectArch()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "os: %s\n", tag)
			fmt.Fprintf(out, "arch: %s\n", arch)

			pkgr, err := packager.ForTag(tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "packager: %s\n", pkgr.Name())

			deps, err := pkgr.Dependencies(tag)
			if err != nil {
				return err
			}
			for _, dep := range deps {
				fmt.Fprintf(out, "dependency: %s\n", dep)
			}
			return nil
		},
	}
}
