package render

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/naming"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Context is an immutable mapping from placeholder identifiers to values.
type Context struct {
	values map[string]string
}

// NewContext returns a context holding a copy of values.
func NewContext(values map[string]string) Context {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Context{values: m}
}

// Get returns the value for key.
func (c Context) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of keys.
func (c Context) Len() int { return len(c.values) }

// Keys returns every key in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (c Context) Map() map[string]string {
	m := make(map[string]string, len(c.values))
	for k, v := range c.values {
		m[k] = v
	}
	return m
}

// ContextInput is everything BuildContext derives keys from.
type ContextInput struct {
	Kind       component.Kind
	Name       string // empty skips the name-derived keys
	Root       string
	Language   string
	LangInfo   *registry.Language    // nil when the language is not declared
	Requested  []*registry.Extension // requested extensions in request order
	Known      []*registry.Extension // every declared extension
	Attributes map[string]string     // raw pass-through values
	Extras     map[string]string     // values derived by the kind's strategy
}

// BuildContext combines name variants, extension flags and values, language
// values, strategy extras and raw attributes into one Context. A raw
// attribute that is not an identifier, or that collides with a reserved
// key, is a ValidationError.
func BuildContext(in ContextInput) (Context, error) {
	const op = "render.BuildContext"

	values := map[string]string{
		"kind":       string(in.Kind),
		"language":   in.Language,
		"root":       in.Root,
		"extensions": extensionList(in.Requested),
	}

	if in.Name != "" {
		v, err := naming.Derive(in.Name)
		if err != nil {
			return Context{}, err
		}
		values["name"] = v.Original
		values["name_snake"] = v.Snake
		values["name_kebab"] = v.Kebab
		values["name_pascal"] = v.Pascal
		values["name_camel"] = v.Camel
		values["name_screaming"] = v.ScreamingSnake
		values["name_title"] = v.Title
		values["package_name"] = v.SafeIdentifier(in.Language)
		values["module_path"] = "example.com/" + v.Kebab
		if m := in.Attributes["module"]; m != "" {
			values["module_path"] = m
		}
	}

	values["language_title"] = in.Language
	values["default_port"] = ""
	values["language_env"] = ""
	values["language_description"] = ""
	indent := ""
	if l := in.LangInfo; l != nil {
		if l.Title != "" {
			values["language_title"] = l.Title
		}
		if l.DefaultPort > 0 {
			values["default_port"] = strconv.Itoa(l.DefaultPort)
		}
		values["language_env"] = l.Env
		values["language_description"] = l.Description
		indent = l.RequirementIndent
	}
	values["extra_requirements"] = requirements(in.Requested, in.Language, indent)

	requested := make(map[string]bool, len(in.Requested))
	for _, e := range in.Requested {
		requested[e.Name] = true
	}
	// Flags and value keys of every known extension are reserved so a raw
	// attribute cannot shadow them when the extension is requested later.
	reserved := make(map[string]bool)
	for _, e := range append(append([]*registry.Extension(nil), in.Known...), in.Requested...) {
		values["has_"+e.Name] = strconv.FormatBool(requested[e.Name])
		for key, val := range e.Values {
			k := e.Name + "_" + key
			reserved[k] = true
			if requested[e.Name] {
				values[k] = val
			}
		}
	}

	for k, v := range in.Extras {
		values[k] = v
	}

	for _, k := range sortedKeys(in.Attributes) {
		if !identPattern.MatchString(k) {
			return Context{}, errs.New(errs.KindValidation, op,
				"attribute %q is not a valid placeholder identifier", k)
		}
		if _, taken := values[k]; taken || reserved[k] {
			return Context{}, errs.New(errs.KindValidation, op,
				"attribute %q collides with a reserved context key", k)
		}
		values[k] = in.Attributes[k]
	}

	return NewContext(values), nil
}

func extensionList(exts []*registry.Extension) string {
	if len(exts) == 0 {
		return "none"
	}
	names := make([]string, len(exts))
	for i, e := range exts {
		names[i] = e.Name
	}
	return strings.Join(names, ", ")
}

// requirements collects the requested extensions' dependency lines for the
// language, one per line, in request order.
func requirements(exts []*registry.Extension, language, indent string) string {
	var lines []string
	for _, e := range exts {
		for _, r := range e.Requirements[language] {
			lines = append(lines, indent+r)
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
