// Package component defines the unit of generation work: a Kind and a
// Request describing one component to materialize.
package component

import (
	"fmt"
	"strings"
)

// Kind is the closed set of component kinds the generator understands.
type Kind string

const (
	KindService  Kind = "service"
	KindFrontend Kind = "frontend"
	KindLibrary  Kind = "library"
	KindCLI      Kind = "cli"
	KindMonorepo Kind = "monorepo"
)

// Kinds lists every kind in generation order (monorepo last).
var Kinds = []Kind{KindService, KindFrontend, KindLibrary, KindCLI, KindMonorepo}

var kindAliases = map[string]Kind{
	"service":   KindService,
	"services":  KindService,
	"svc":       KindService,
	"backend":   KindService,
	"frontend":  KindFrontend,
	"frontends": KindFrontend,
	"fe":        KindFrontend,
	"app":       KindFrontend,
	"library":   KindLibrary,
	"libraries": KindLibrary,
	"lib":       KindLibrary,
	"libs":      KindLibrary,
	"cli":       KindCLI,
	"clis":      KindCLI,
	"monorepo":  KindMonorepo,
	"monorepos": KindMonorepo,
	"mono":      KindMonorepo,
}

// ParseKind maps a kind name or alias (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown component kind %q (want one of %s)", s, kindList())
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// RequiresName reports whether requests of this kind must carry a name.
func (k Kind) RequiresName() bool {
	return k != KindMonorepo
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Request is one unit of generation work.
type Request struct {
	Kind       Kind              `validate:"required"`
	Name       string            // required for every kind except monorepo
	Root       string            `validate:"required"`
	Language   string            // empty selects the kind's default language
	Extensions []string          `validate:"dive,required"`
	Attributes map[string]string // pass-through values from the manifest
	Source     string            // position in the manifest, e.g. "services[1] (line 7)"
}

// Label returns a short human-readable identifier for messages.
func (r Request) Label() string {
	name := r.Name
	if name == "" {
		name = r.Root
	}
	if r.Source != "" {
		return fmt.Sprintf("%s %q at %s", r.Kind, name, r.Source)
	}
	return fmt.Sprintf("%s %q", r.Kind, name)
}

// NormalizeExtensions trims, lowercases and de-duplicates extension tags,
// keeping the first occurrence of each.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	var out []string
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
