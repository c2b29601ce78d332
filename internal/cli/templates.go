package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/woud420/kickstart-sub000/internal/registry"
)

var templatesJSON bool

func init() {
	templatesCmd.Flags().BoolVar(&templatesJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(templatesCmd)
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available kinds, languages and extensions",
	Long: `List every kind and language combination with base templates, the
extensions each one accepts, and any builtin templates hidden by the
user template directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if templatesJSON {
			return printTemplatesJSON(cmd, reg)
		}
		return printTemplatesTable(cmd, reg)
	},
}

// templatesEntry is one kind/language combination for display.
type templatesEntry struct {
	Kind       string   `json:"kind"`
	Language   string   `json:"language"`
	Default    bool     `json:"default"`
	Extensions []string `json:"extensions"`
}

func templatesEntries(reg *registry.Registry) []templatesEntry {
	combos := reg.Combinations()
	entries := make([]templatesEntry, 0, len(combos))
	for _, c := range combos {
		entries = append(entries, templatesEntry{
			Kind:       string(c.Kind),
			Language:   c.Language,
			Default:    reg.DefaultLanguage(c.Kind) == c.Language,
			Extensions: c.Extensions,
		})
	}
	return entries
}

func printTemplatesTable(cmd *cobra.Command, reg *registry.Registry) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tLANGUAGE\tEXTENSIONS")
	for _, e := range templatesEntries(reg) {
		lang := e.Language
		if e.Default {
			lang += " (default)"
		}
		exts := strings.Join(e.Extensions, ", ")
		if exts == "" {
			exts = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Kind, lang, exts)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nExtensions:")
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, e := range reg.Extensions() {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", e.Name, e.Category, e.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if shadowed := reg.Shadowed(); len(shadowed) > 0 {
		fmt.Fprintln(out, "\nShadowed templates:")
		for _, s := range shadowed {
			fmt.Fprintf(out, "  %s (by %s)\n", s.SourceID, s.By)
		}
	}
	return nil
}

func printTemplatesJSON(cmd *cobra.Command, reg *registry.Registry) error {
	data, err := json.MarshalIndent(templatesEntries(reg), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
