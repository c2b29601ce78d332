package registry

import (
	"slices"
	"sort"

	"github.com/woud420/kickstart-sub000/internal/component"
)

// Extension returns a declared extension by name.
func (r *Registry) Extension(name string) (*Extension, bool) {
	e, ok := r.extensions[name]
	return e, ok
}

// Extensions returns every declared extension sorted by name.
func (r *Registry) Extensions() []*Extension {
	out := make([]*Extension, 0, len(r.extensions))
	for _, e := range r.extensions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExtensionNames returns the sorted names of every declared extension.
func (r *Registry) ExtensionNames() []string {
	names := make([]string, 0, len(r.extensions))
	for name := range r.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Language returns the declared language with the given canonical name or alias.
func (r *Registry) Language(name string) (*Language, bool) {
	l, ok := r.languages[r.NormalizeLanguage(name)]
	return l, ok
}

// Shadowed returns templates hidden by higher-priority sources.
func (r *Registry) Shadowed() []Shadowed {
	return slices.Clone(r.shadowed)
}

// Combinations lists every (kind, language) pair with base templates,
// ordered by kind then language, with the extensions available for each.
func (r *Registry) Combinations() []Combination {
	type pair struct {
		kind component.Kind
		lang string
	}
	seen := make(map[pair]bool)
	var combos []Combination
	for _, d := range r.descriptors {
		p := pair{d.Kind, d.Language}
		if d.Extension != "" || seen[p] {
			continue
		}
		seen[p] = true

		c := Combination{Kind: d.Kind, Language: d.Language}
		for _, e := range r.Extensions() {
			if e.AppliesTo(d.Kind, d.Language) {
				c.Extensions = append(c.Extensions, e.Name)
			}
		}
		combos = append(combos, c)
	}

	rank := make(map[component.Kind]int, len(component.Kinds))
	for i, k := range component.Kinds {
		rank[k] = i
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].Kind != combos[j].Kind {
			return rank[combos[i].Kind] < rank[combos[j].Kind]
		}
		return combos[i].Language < combos[j].Language
	})
	return combos
}
