package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.yaml.in/yaml/v3"

	"github.com/woud420/kickstart-sub000/internal/component"
)

const (
	extensionsFile = "extensions.yaml"
	languagesFile  = "languages.yaml"

	templateSuffix = ".tmpl"
	dotPrefix      = "dot-"
)

// templatePattern selects template files inside a source.
const templatePattern = "**/*" + templateSuffix

// ignorePatterns are skipped during discovery.
var ignorePatterns = []string{
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/*.swp",
	"**/*~",
	"**/.git/**",
}

// Registry is an immutable index of templates, extensions and languages.
type Registry struct {
	descriptors []Descriptor
	extensions  map[string]*Extension
	languages   map[string]*Language
	aliases     map[string]string
	defaults    map[component.Kind]string
	shadowed    []Shadowed
	logger      *slog.Logger
}

// Option configures a Registry during Load.
type Option func(*Registry)

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDefaultLanguage sets the language used when a request of kind omits one.
func WithDefaultLanguage(kind component.Kind, language string) Option {
	return func(r *Registry) {
		if language != "" {
			r.defaults[kind] = strings.ToLower(language)
		}
	}
}

var builtinDefaults = map[component.Kind]string{
	component.KindService:  "python",
	component.KindFrontend: "typescript",
	component.KindLibrary:  "python",
	component.KindCLI:      "python",
	component.KindMonorepo: AnyLanguage,
}

// Load walks all sources and builds a registry. Sources are searched in
// slice order (first source = highest priority): a template, extension or
// language found in an earlier source shadows the same entry in later ones.
func Load(sources []Source, opts ...Option) (*Registry, error) {
	r := &Registry{
		extensions: make(map[string]*Extension),
		languages:  make(map[string]*Language),
		aliases:    make(map[string]string),
		defaults:   make(map[component.Kind]string, len(builtinDefaults)),
		logger:     slog.New(slog.DiscardHandler),
	}
	for k, v := range builtinDefaults {
		r.defaults[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}

	seen := make(map[string]string)
	for _, src := range sources {
		if err := r.loadCatalogs(src); err != nil {
			return nil, err
		}
		found, err := walkSource(src, r.logger)
		if err != nil {
			return nil, fmt.Errorf("walking template source %s: %w", src.Name, err)
		}
		for _, d := range found {
			key := descriptorKey(d)
			if by, dup := seen[key]; dup {
				r.shadowed = append(r.shadowed, Shadowed{SourceID: d.SourceID, By: by})
				r.logger.Debug("template shadowed", "template", d.SourceID, "by", by)
				continue
			}
			seen[key] = d.SourceID
			r.descriptors = append(r.descriptors, d)
		}
	}

	for _, d := range r.descriptors {
		if d.Extension != "" && r.extensions[d.Extension] == nil {
			r.logger.Warn("templates for undeclared extension are never used",
				"extension", d.Extension, "template", d.SourceID)
		}
	}

	r.logger.Debug("template registry loaded",
		"templates", len(r.descriptors),
		"extensions", len(r.extensions),
		"languages", len(r.languages),
		"shadowed", len(r.shadowed))
	return r, nil
}

func descriptorKey(d Descriptor) string {
	return strings.Join([]string{string(d.Kind), d.Language, d.Extension, d.OutputPattern}, "|")
}

type extensionsDoc struct {
	Extensions []*Extension `yaml:"extensions"`
}

type languagesDoc struct {
	Languages []*Language `yaml:"languages"`
}

// loadCatalogs reads the optional extensions.yaml and languages.yaml at the
// source root. Entries already declared by a higher-priority source win.
func (r *Registry) loadCatalogs(src Source) error {
	var exts extensionsDoc
	if ok, err := readYAML(src, extensionsFile, &exts); err != nil {
		return err
	} else if ok {
		for _, e := range exts.Extensions {
			if err := checkExtension(e); err != nil {
				return fmt.Errorf("%s:%s: %w", src.Name, extensionsFile, err)
			}
			if _, dup := r.extensions[e.Name]; dup {
				continue
			}
			e.Source = src.Name
			r.extensions[e.Name] = e
		}
	}

	var langs languagesDoc
	if ok, err := readYAML(src, languagesFile, &langs); err != nil {
		return err
	} else if ok {
		for _, l := range langs.Languages {
			l.Name = strings.ToLower(strings.TrimSpace(l.Name))
			if l.Name == "" {
				return fmt.Errorf("%s:%s: language without a name", src.Name, languagesFile)
			}
			if _, dup := r.languages[l.Name]; dup {
				continue
			}
			l.Source = src.Name
			r.languages[l.Name] = l
			for _, a := range l.Aliases {
				a = strings.ToLower(a)
				if _, taken := r.aliases[a]; !taken {
					r.aliases[a] = l.Name
				}
			}
		}
	}
	return nil
}

func checkExtension(e *Extension) error {
	e.Name = strings.ToLower(strings.TrimSpace(e.Name))
	if e.Name == "" {
		return errors.New("extension without a name")
	}
	if e.Precedence <= 0 {
		return fmt.Errorf("extension %q: precedence must be greater than zero, got %d", e.Name, e.Precedence)
	}
	if len(e.Kinds) == 0 {
		return fmt.Errorf("extension %q: at least one kind is required", e.Name)
	}
	for _, k := range e.Kinds {
		if !k.Valid() {
			return fmt.Errorf("extension %q: unknown kind %q", e.Name, k)
		}
	}
	for i, l := range e.Languages {
		e.Languages[i] = strings.ToLower(l)
	}
	return nil
}

// readYAML decodes name from the source root. A missing file is not an error.
func readYAML(src Source, name string, v any) (bool, error) {
	data, err := fs.ReadFile(src.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s:%s: %w", src.Name, name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s:%s: %w", src.Name, name, err)
	}
	return true, nil
}

// walkSource finds every template in a source. The layout is
// <kind>/<language>/base/<path>.tmpl for base templates and
// <kind>/<language>/ext/<extension>/<path>.tmpl for overlays.
func walkSource(src Source, logger *slog.Logger) ([]Descriptor, error) {
	var result []Descriptor

	err := fs.WalkDir(src.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			return nil // skip inaccessible entries
		}
		if d.IsDir() || ignored(p) {
			return nil
		}
		if ok, _ := doublestar.Match(templatePattern, p); !ok {
			return nil
		}

		desc, ok := describe(src.Name, p)
		if !ok {
			logger.Debug("ignoring template outside the kind/language layout", "source", src.Name, "path", p)
			return nil
		}
		body, err := fs.ReadFile(src.FS, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		desc.Body = string(body)
		result = append(result, desc)
		return nil
	})
	return result, err
}

func ignored(p string) bool {
	for _, pat := range ignorePatterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}

// describe builds a descriptor from a source-relative template path.
func describe(source, p string) (Descriptor, bool) {
	parts := strings.Split(p, "/")
	if len(parts) < 4 {
		return Descriptor{}, false
	}

	kind := component.Kind(strings.ToLower(parts[0]))
	if !kind.Valid() {
		return Descriptor{}, false
	}
	d := Descriptor{
		SourceID: source + ":" + p,
		Source:   source,
		Kind:     kind,
		Language: strings.ToLower(parts[1]),
	}

	var rest []string
	switch {
	case parts[2] == "base":
		rest = parts[3:]
	case parts[2] == "ext" && len(parts) >= 5:
		d.Extension = strings.ToLower(parts[3])
		rest = parts[4:]
	default:
		return Descriptor{}, false
	}

	d.OutputPattern = outputPattern(rest)
	d.Mode = 0644
	if path.Ext(d.OutputPattern) == ".sh" {
		d.Mode = 0755
	}
	return d, true
}

// outputPattern maps template path segments to output path segments:
// "dot-" prefixes become "." and the template suffix is dropped.
func outputPattern(segments []string) string {
	out := make([]string, len(segments))
	for i, s := range segments {
		if strings.HasPrefix(s, dotPrefix) {
			s = "." + strings.TrimPrefix(s, dotPrefix)
		}
		out[i] = s
	}
	last := len(out) - 1
	out[last] = strings.TrimSuffix(out[last], templateSuffix)
	return path.Join(out...)
}
