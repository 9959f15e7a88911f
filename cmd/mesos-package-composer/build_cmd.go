package main

import (
	"github.com/spf13/cobra"

	"github.com/mesosphere/mesos-package-composer/internal/config"
	"github.com/mesosphere/mesos-package-composer/internal/pipeline"
	"github.com/mesosphere/mesos-package-composer/internal/utils/logger"
)

// createBuildCommand creates the build subcommand, the main entry point of
// the packaging pipeline.
func createBuildCommand() *cobra.Command {
	var params config.RequestParams
	var outputDir string

	cmd := &cobra.Command{
		Use:   "build [flags]",
		Short: "Check out, compile, and package Mesos for the host OS",
		Long: `Build runs the full packaging pipeline: it detects the host OS and
architecture, checks out the requested ref of the Mesos repository,
compiles it out of tree, stages the installed layout with init scripts
and default configuration, and emits a .deb or .rpm via fpm.

Examples:
  mesos-package-composer build --repo https://github.com/apache/mesos.git?ref=1.7.3 \
    --src-dir work/src --build-dir work/build --rename
  mesos-package-composer build --repo https://github.com/apache/mesos.git \
    --branch master --src-dir work/src --build-dir work/build`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			req, err := config.NewBuildRequest(params)
			if err != nil {
				return err
			}

			outcome, err := pipeline.Run(pipeline.Options{
				Config:    cfg,
				Request:   req,
				OutputDir: outputDir,
			})
			if err != nil {
				return err
			}

			log := logger.Logger()
			log.Infof("Package: %s", outcome.Package.Path)
			log.Infof("Manifest: %s", outcome.ManifestPath)
			if outcome.ArchivePath != "" {
				log.Infof("Staging archive: %s", outcome.ArchivePath)
			}
			if outcome.SignaturePath != "" {
				log.Infof("Signature: %s", outcome.SignaturePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.RepoURL, "repo", "",
		"Mesos repository URL, optionally with a ?ref=<branch|tag|commit> selector")
	cmd.Flags().StringVar(&params.Branch, "branch", "",
		"Ref to check out; overrides a ?ref= selector in the URL")
	cmd.Flags().StringVar(&params.SrcDir, "src-dir", "",
		"Directory for the source checkout (reused when it exists)")
	cmd.Flags().StringVar(&params.BuildDir, "build-dir", "",
		"Directory for the out-of-tree build")
	cmd.Flags().StringVar(&params.NominalVersion, "nominal-version", "",
		"Package version override; skips reading the version from the checkout")
	cmd.Flags().StringVar(&params.BuildVersion, "build-version", "",
		"Package iteration (defaults to a UTC timestamp)")
	cmd.Flags().StringVar(&params.ConfigureFlags, "configure-flags", "",
		"Extra flags appended to the configure invocation")
	cmd.Flags().StringVar(&params.ExtraLibs, "extra-libs", "",
		"Semicolon-separated library files to bundle under usr/lib/mesos")
	cmd.Flags().BoolVar(&params.Prebuilt, "prebuilt", false,
		"Skip configure and make; the build directory already holds a build")
	cmd.Flags().BoolVar(&params.Rename, "rename", false,
		"Name the package file after version, iteration, and architecture")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".",
		"Directory where the package and manifest land")

	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("src-dir")
	_ = cmd.MarkFlagRequired("build-dir")

	return cmd
}
