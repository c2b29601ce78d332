package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
)

// Resolve returns the ordered descriptors to render for one component:
// the base layer sorted by output pattern, then each requested extension's
// overlay sorted by output pattern, extensions in request order. An overlay
// replaces a lower-layer descriptor with the same output pattern.
func (r *Registry) Resolve(kind component.Kind, language string, extensions []string) (*Resolution, error) {
	const op = "registry.Resolve"

	lang := r.ResolveLanguage(kind, language)
	base := r.collect(kind, lang, "")
	if len(base) == 0 {
		return nil, errs.New(errs.KindTemplateNotFound, op,
			"no base templates registered for kind %q and language %q", kind, lang)
	}
	sortByPattern(base)

	res := &Resolution{Kind: kind, Language: lang}
	all := base
	for _, name := range component.NormalizeExtensions(extensions) {
		ext, ok := r.extensions[name]
		if !ok {
			return nil, errs.New(errs.KindTemplateNotFound, op,
				"unknown extension %q (available: %s)", name, strings.Join(r.ExtensionNames(), ", "))
		}
		if !ext.AppliesTo(kind, lang) {
			return nil, errs.New(errs.KindTemplateNotFound, op,
				"extension %q is not available for kind %q and language %q", name, kind, lang)
		}

		overlay := r.collect(kind, lang, name)
		for i := range overlay {
			overlay[i].Layer = ext.Precedence
		}
		sortByPattern(overlay)
		all = append(all, overlay...)
		res.Extensions = append(res.Extensions, ext)
	}

	merged, err := MergeByPath(all, func(d Descriptor) string { return d.OutputPattern })
	if err != nil {
		return nil, err
	}
	res.Descriptors = merged
	return res, nil
}

// MergeByPath collapses descriptors that share a destination, as computed
// by pathOf. Every layer of a path is checked before a winner is picked:
// two descriptors on the same layer are an ambiguous override and fail with
// a TemplateConflictError naming both, whichever layer ends up winning.
// The highest layer then wins and records the SourceID of the next layer
// down in Overrides. Input order is preserved for the survivors.
func MergeByPath(ds []Descriptor, pathOf func(Descriptor) string) ([]Descriptor, error) {
	out := make([]Descriptor, len(ds))
	copy(out, ds)

	var paths []string
	byPath := make(map[string][]int, len(out))
	for i := range out {
		p := pathOf(out[i])
		if _, seen := byPath[p]; !seen {
			paths = append(paths, p)
		}
		byPath[p] = append(byPath[p], i)
	}

	var conflicts []error
	winner := make(map[string]int, len(paths))
	for _, p := range paths {
		idx := byPath[p]
		sort.SliceStable(idx, func(a, b int) bool { return out[idx[a]].Layer > out[idx[b]].Layer })
		for k := 1; k < len(idx); k++ {
			prev, cur := out[idx[k-1]], out[idx[k]]
			if prev.Layer == cur.Layer {
				conflicts = append(conflicts, fmt.Errorf("%s and %s both write %q on layer %d",
					prev.SourceID, cur.SourceID, p, cur.Layer))
			}
		}
		winner[p] = idx[0]
		if len(idx) > 1 {
			out[idx[0]].Overrides = out[idx[1]].SourceID
		}
	}
	if len(conflicts) > 0 {
		return nil, errs.Wrap(errs.KindTemplateConflict, "registry.MergeByPath",
			errors.Join(conflicts...), "ambiguous template override")
	}

	kept := make([]Descriptor, 0, len(winner))
	for i := range out {
		if winner[pathOf(out[i])] == i {
			kept = append(kept, out[i])
		}
	}
	return kept, nil
}

// collect returns copies of the descriptors matching the predicate.
func (r *Registry) collect(kind component.Kind, language, extension string) []Descriptor {
	var ds []Descriptor
	for _, d := range r.descriptors {
		if d.AppliesTo(kind, language, extension) {
			ds = append(ds, d)
		}
	}
	return ds
}

func sortByPattern(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].OutputPattern < ds[j].OutputPattern
	})
}

// NormalizeLanguage maps a language name or alias to its canonical name.
// Unknown names are returned lowercased so resolution can report them.
func (r *Registry) NormalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if canonical, ok := r.aliases[l]; ok {
		return canonical
	}
	return l
}

// DefaultLanguage returns the language used for kind when a request omits one.
func (r *Registry) DefaultLanguage(kind component.Kind) string {
	if l, ok := r.defaults[kind]; ok {
		return r.NormalizeLanguage(l)
	}
	return AnyLanguage
}

// ResolveLanguage returns the canonical language for a request, falling
// back to the kind's default when language is empty.
func (r *Registry) ResolveLanguage(kind component.Kind, language string) string {
	if strings.TrimSpace(language) == "" {
		return r.DefaultLanguage(kind)
	}
	return r.NormalizeLanguage(language)
}
