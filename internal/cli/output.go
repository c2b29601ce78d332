package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/materialize"
	"github.com/woud420/kickstart-sub000/internal/scaffold"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

// printSummary writes one line per component and a totals line.
func printSummary(w io.Writer, s *scaffold.Summary) {
	for _, c := range s.Components {
		root := displayPath(c.Root)
		if c.OK() {
			files := fmt.Sprintf("%d files", len(c.Files))
			if n := c.Count(materialize.StatusOverridden); n > 0 {
				files += fmt.Sprintf(", %d from extensions", n)
			}
			fmt.Fprintf(w, "%s %s %s  %s\n",
				okStyle.Render("✓"), c.Request.Label(), dimStyle.Render(root), dimStyle.Render(c.Language+", "+files))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", failStyle.Render("✗"), c.Request.Label(), dimStyle.Render(root))
		fmt.Fprintf(w, "    %s\n", c.Err)
		if errs.Is(c.Err, errs.KindDestinationConflict) {
			fmt.Fprintln(w, dimStyle.Render("    rerun with --force to overwrite colliding files"))
		}
	}

	line := fmt.Sprintf("%d succeeded, %d failed", len(s.Succeeded()), len(s.Failed()))
	if s.OK() {
		fmt.Fprintf(w, "\n%s\n", okStyle.Render(line))
	} else {
		fmt.Fprintf(w, "\n%s\n", failStyle.Render(line))
	}
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Warnings:"))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
	fmt.Fprintln(w)
}

func printNextSteps(w io.Writer, c scaffold.ComponentResult) {
	fmt.Fprintln(w, "\n"+titleStyle.Render("Next steps:"))
	fmt.Fprintf(w, "  1. cd %s\n", displayPath(c.Root))
	fmt.Fprintln(w, "  2. Read README.md for build and run instructions")
}

// errFailed is the command error for a run with failed components. The
// summary has already been printed, so it only carries the count.
func errFailed(s *scaffold.Summary) error {
	return fmt.Errorf("%d of %d components failed", len(s.Failed()), len(s.Components))
}

// displayPath shortens p relative to the working directory when it lies
// below it.
func displayPath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}
