package registry

import (
	"io/fs"
	"slices"

	"github.com/woud420/kickstart-sub000/internal/component"
)

// AnyLanguage marks templates and extensions that apply to every language.
const AnyLanguage = "any"

// Source represents a location to search for templates (e.g., builtin, user).
type Source struct {
	Name string // e.g., "builtin", "user"
	FS   fs.FS  // template tree rooted at the source
}

// Descriptor maps one template body to one output path pattern.
type Descriptor struct {
	SourceID      string         // "<source>:<path inside source>"
	Source        string         // name of the source it was found in
	Kind          component.Kind // component kind it applies to
	Language      string         // language it applies to, or AnyLanguage
	Extension     string         // owning extension; empty for base templates
	OutputPattern string         // destination relative to the root, may hold placeholders
	Layer         int            // 0 for base, the extension's precedence for overlays
	Body          string         // template text
	Mode          fs.FileMode    // file mode for the materialized file

	// Path is the rendered output path. It is empty until the generator
	// renders OutputPattern against a context.
	Path string

	// Overrides is the SourceID of the lower-layer descriptor this one
	// displaced during a merge, if any.
	Overrides string
}

// AppliesTo reports whether the descriptor participates in generating a
// component of the given kind and language, for the given extension
// (empty for the base layer).
func (d Descriptor) AppliesTo(kind component.Kind, language, extension string) bool {
	if d.Kind != kind || d.Extension != extension {
		return false
	}
	return d.Language == AnyLanguage || d.Language == language
}

// Extension is an optional feature that overlays templates onto a
// component's base set and contributes context values.
type Extension struct {
	Name         string              `yaml:"name"`
	Category     string              `yaml:"category"` // e.g., "database", "cache", "auth"
	Description  string              `yaml:"description"`
	Precedence   int                 `yaml:"precedence"` // overlay layer, must be > 0
	Kinds        []component.Kind    `yaml:"kinds"`
	Languages    []string            `yaml:"languages"` // empty or "any" means every language
	Values       map[string]string   `yaml:"values"`    // exposed as <name>_<key>
	Requirements map[string][]string `yaml:"requirements"`

	Source string `yaml:"-"`
}

// AppliesTo reports whether the extension can be requested for the kind and
// language.
func (e *Extension) AppliesTo(kind component.Kind, language string) bool {
	if !slices.Contains(e.Kinds, kind) {
		return false
	}
	if len(e.Languages) == 0 || slices.Contains(e.Languages, AnyLanguage) {
		return true
	}
	return slices.Contains(e.Languages, language)
}

// Language describes a target language and the values templates need for it.
type Language struct {
	Name              string   `yaml:"name"`
	Title             string   `yaml:"title"`
	Aliases           []string `yaml:"aliases"`
	DefaultPort       int      `yaml:"default_port"`
	Env               string   `yaml:"env"`
	RequirementIndent string   `yaml:"requirement_indent"`
	Description       string   `yaml:"description"`

	Source string `yaml:"-"`
}

// Resolution is the outcome of resolving one (kind, language, extensions)
// request: the merged, ordered descriptors plus the extension metadata the
// render context needs.
type Resolution struct {
	Kind        component.Kind
	Language    string
	Extensions  []*Extension // requested extensions in request order
	Descriptors []Descriptor
}

// Combination is one (kind, language) pair with base templates, plus the
// extensions that can be requested for it.
type Combination struct {
	Kind       component.Kind
	Language   string
	Extensions []string
}

// Shadowed records a template hidden by a higher-priority source.
type Shadowed struct {
	SourceID string
	By       string
}
