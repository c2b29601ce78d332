package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/woud420/kickstart-sub000/internal/branding"
	"github.com/woud420/kickstart-sub000/internal/manifest"
	"github.com/woud420/kickstart-sub000/internal/scaffold"
)

var (
	generateForce    bool
	generateParallel int
)

func init() {
	generateCmd.Flags().BoolVarP(&generateForce, "force", "f", false, "Overwrite colliding files in non-empty destinations")
	generateCmd.Flags().IntVarP(&generateParallel, "parallel", "p", 0, "Components generated at once (default: config parallelism)")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [manifest]",
	Short: "Generate every component in a manifest",
	Long: `Generate every component described by a manifest. Relative roots are
resolved against the manifest's directory. Monorepos are generated last so
their docs and compose file can list the other components.

The manifest defaults to ` + branding.ManifestFile() + ` in the working directory.

Example manifest:
  services:
    - name: user-service
      lang: python
      root: services/user-service
      extensions: [postgres, jwt]
  frontends:
    - name: dashboard
      root: apps/dashboard
  monorepo:
    - root: .`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := branding.ManifestFile()
		if len(args) == 1 {
			path = args[0]
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving manifest path: %w", err)
		}

		m, err := manifest.ParseFile(abs, manifest.WithLogger(logger))
		if err != nil {
			return err
		}
		if len(m.Components) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No components in %s\n", path)
			return nil
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		parallel := settings.Parallelism
		if generateParallel > 0 {
			parallel = generateParallel
		}
		gen := scaffold.New(reg, scaffold.Options{
			BaseDir:     filepath.Dir(abs),
			Force:       generateForce || settings.Force,
			Parallelism: parallel,
			Logger:      logger,
			Owned:       []string{abs},
		})

		summary, err := gen.Run(cmd.Context(), m.Components)
		if err != nil {
			return err
		}
		printWarnings(cmd.OutOrStdout(), m.Warnings)
		printSummary(cmd.OutOrStdout(), summary)
		if !summary.OK() {
			return errFailed(summary)
		}
		return nil
	},
}
