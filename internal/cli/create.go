package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/naming"
	"github.com/woud420/kickstart-sub000/internal/scaffold"
)

var (
	createLang  string
	createRoot  string
	createExts  []string
	createAttrs map[string]string
	createHelm  bool
	createForce bool
)

func init() {
	createCmd.Flags().StringVarP(&createLang, "lang", "l", "", "Language (default: configured per kind)")
	createCmd.Flags().StringVar(&createRoot, "root", "", "Destination directory (default: ./<name>)")
	createCmd.Flags().StringSliceVarP(&createExts, "ext", "e", nil, "Extensions to apply, in order (repeatable or comma-separated)")
	createCmd.Flags().StringToStringVar(&createAttrs, "attr", nil, "Extra template values as key=value")
	createCmd.Flags().BoolVar(&createHelm, "helm", false, "Add a Helm chart (same as --ext helm)")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "Overwrite colliding files in a non-empty destination")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <kind> [name]",
	Short: "Generate one component",
	Long: `Generate a single service, frontend, library, cli or monorepo.

Examples:
  kickstart create service user-service --lang python --ext postgres,jwt
  kickstart create frontend dashboard --root apps/dashboard
  kickstart create library shared-models --lang go --attr module=github.com/acme/shared-models
  kickstart create monorepo --root platform --helm`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRequest(args)
		if err != nil {
			return err
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		gen := scaffold.New(reg, scaffold.Options{
			Force:  createForce || settings.Force,
			Logger: logger,
		})

		summary, err := gen.Generate(cmd.Context(), req)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), summary)
		if !summary.OK() {
			return errFailed(summary)
		}
		printNextSteps(cmd.OutOrStdout(), summary.Components[0])
		return nil
	},
}

// buildRequest turns the create arguments and flags into a request.
func buildRequest(args []string) (component.Request, error) {
	kind, err := component.ParseKind(args[0])
	if err != nil {
		return component.Request{}, err
	}

	req := component.Request{
		Kind:       kind,
		Language:   createLang,
		Root:       createRoot,
		Extensions: createExts,
		Attributes: createAttrs,
		Source:     "command line",
	}
	if len(args) > 1 {
		req.Name = args[1]
	}
	if createHelm {
		req.Extensions = append(req.Extensions, "helm")
	}
	req.Extensions = component.NormalizeExtensions(req.Extensions)

	if req.Root == "" {
		req.Root = resolveOutputDir(req.Name)
	}
	if err := req.Validate(); err != nil {
		return component.Request{}, err
	}
	return req, nil
}

// resolveOutputDir defaults the root to ./<name-kebab>, or the working
// directory for an unnamed monorepo.
func resolveOutputDir(name string) string {
	if name == "" {
		return "."
	}
	if v, err := naming.Derive(name); err == nil {
		return filepath.Join(".", v.Kebab)
	}
	return filepath.Join(".", name)
}
