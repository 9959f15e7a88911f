package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags.
var (
	toolVersion = "dev"
	gitCommit   = "unknown"
)

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tool version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mesos-package-composer %s (%s, %s/%s)\n",
				toolVersion, gitCommit, runtime.GOOS, runtime.GOARCH)
		},
	}
}
