package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
)

const op = "manifest.Parse"

// ParseOption configures parsing.
type ParseOption func(*parser)

// WithLogger sets the logger that receives warnings, e.g. for unknown sections.
func WithLogger(l *slog.Logger) ParseOption {
	return func(p *parser) {
		if l != nil {
			p.logger = l
		}
	}
}

type parser struct {
	logger *slog.Logger
	source string
}

func newParser(source string, opts []ParseOption) *parser {
	p := &parser{logger: slog.New(slog.DiscardHandler), source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads and parses a manifest file. Files ending in .md or
// .markdown are read as a legacy markdown table; everything else as YAML.
func ParseFile(path string, opts ...ParseOption) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var m *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		m, err = ParseMarkdown(data, opts...)
	default:
		m, err = newParser(path, opts).parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse parses a YAML manifest into component requests in document order.
// Malformed documents fail with a ManifestValidationError that names the
// offending entry.
func Parse(data []byte, opts ...ParseOption) (*Manifest, error) {
	return newParser("", opts).parse(data)
}

func (p *parser) parse(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.KindManifestValidation, op, err, "invalid YAML")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errs.New(errs.KindManifestValidation, op, "manifest is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errs.New(errs.KindManifestValidation, op,
			"line %d: manifest must be a mapping of sections", root.Line)
	}

	issues, err := checkSchema(root)
	if err != nil {
		return nil, errs.Wrap(errs.KindManifestValidation, op, err, "validating manifest")
	}
	if len(issues) > 0 {
		return nil, schemaError(root, issues)
	}

	m := &Manifest{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		heading := key.Value

		if heading == fieldVersion {
			if err := checkVersion(value); err != nil {
				return nil, err
			}
			m.Version = value.Value
			continue
		}

		kind, ok := sectionKind(heading)
		if !ok {
			msg := fmt.Sprintf("line %d: unknown section %q ignored", key.Line, heading)
			m.Warnings = append(m.Warnings, msg)
			p.logger.Warn("unknown manifest section ignored", "section", heading, "line", key.Line, "manifest", p.source)
			continue
		}
		if value.Kind != yaml.SequenceNode {
			continue // an empty section
		}

		for idx, entry := range value.Content {
			req, err := parseEntry(kind, heading, idx, entry)
			if err != nil {
				return nil, err
			}
			m.Components = append(m.Components, req)
		}
	}

	if err := checkDuplicateRoots(m.Components); err != nil {
		return nil, err
	}
	return m, nil
}

// sectionKind maps a section heading to a component kind.
func sectionKind(heading string) (component.Kind, bool) {
	switch strings.ToLower(heading) {
	case "services", "service":
		return component.KindService, true
	case "frontends", "frontend":
		return component.KindFrontend, true
	case "libraries", "library", "libs", "lib":
		return component.KindLibrary, true
	case "clis", "cli":
		return component.KindCLI, true
	case "monorepo", "monorepos", "mono":
		return component.KindMonorepo, true
	}
	return "", false
}

func checkVersion(node *yaml.Node) error {
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return errs.Wrap(errs.KindManifestValidation, op, err, "invalid version constraint")
	}
	v, err := semver.NewVersion(node.Value)
	if err != nil {
		return errs.Wrap(errs.KindManifestValidation, op, err,
			"line %d: version %q is not a semantic version", node.Line, node.Value)
	}
	if !constraint.Check(v) {
		return errs.New(errs.KindManifestValidation, op,
			"line %d: manifest version %s is not supported (want %s)", node.Line, v, SupportedVersions)
	}
	return nil
}

func position(heading string, idx int, node *yaml.Node) string {
	return fmt.Sprintf("%s[%d] (line %d)", heading, idx, node.Line)
}

// parseEntry turns one mapping node into a request.
func parseEntry(kind component.Kind, heading string, idx int, node *yaml.Node) (component.Request, error) {
	pos := position(heading, idx, node)
	req := component.Request{Kind: kind, Source: pos}
	if node.Kind != yaml.MappingNode {
		return req, errs.New(errs.KindManifestValidation, op, "%s: entry must be a mapping", pos)
	}

	var helm bool
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case fieldName:
			req.Name = strings.TrimSpace(value.Value)
		case fieldRoot:
			req.Root = strings.TrimSpace(value.Value)
		case fieldLang, fieldLanguage:
			req.Language = strings.TrimSpace(value.Value)
		case fieldExtensions:
			req.Extensions = append(req.Extensions, extensionList(value)...)
		case fieldHelm:
			helm = parseBool(value.Value)
		default:
			if value.Kind != yaml.ScalarNode {
				return req, errs.New(errs.KindManifestValidation, op,
					"%s: field %q must be a scalar value", pos, key)
			}
			if req.Attributes == nil {
				req.Attributes = make(map[string]string)
			}
			req.Attributes[key] = value.Value
		}
	}
	if helm {
		req.Extensions = append(req.Extensions, "helm")
	}
	req.Extensions = component.NormalizeExtensions(req.Extensions)

	if req.Root == "" {
		return req, errs.New(errs.KindManifestValidation, op, "%s: missing required field %q", pos, fieldRoot)
	}
	if kind.RequiresName() && req.Name == "" {
		return req, errs.New(errs.KindManifestValidation, op, "%s: missing required field %q", pos, fieldName)
	}
	return req, nil
}

// extensionList accepts a sequence of tags or a comma-separated string.
func extensionList(node *yaml.Node) []string {
	if node.Kind == yaml.SequenceNode {
		out := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			out = append(out, n.Value)
		}
		return out
	}
	return strings.Split(node.Value, ",")
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "on":
		return true
	}
	return false
}

// checkDuplicateRoots rejects two entries that materialize into the same
// directory.
func checkDuplicateRoots(reqs []component.Request) error {
	seen := make(map[string]string, len(reqs))
	for _, r := range reqs {
		key := filepath.Clean(r.Root)
		if first, dup := seen[key]; dup {
			return errs.New(errs.KindManifestValidation, op,
				"%s: root %q is already used by %s", r.Source, r.Root, first)
		}
		seen[key] = r.Source
	}
	return nil
}

// schemaError converts schema issues into one ManifestValidationError whose
// message names each offending entry's position.
func schemaError(root *yaml.Node, issues []ValidationIssue) error {
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("%s: %s", locate(root, issue.Path), issue.Message))
	}
	sort.Strings(lines)
	return errs.New(errs.KindManifestValidation, op, "invalid manifest:\n  %s", strings.Join(lines, "\n  "))
}

// locate maps a JSON pointer such as /services/2/name to a readable
// position such as "services[2] (line 14)".
func locate(root *yaml.Node, pointer string) string {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	if pointer == "" || len(parts) == 0 {
		return "manifest"
	}

	section := parts[0]
	value := mappingValue(root, section)
	if value == nil {
		return section
	}
	if len(parts) < 2 || value.Kind != yaml.SequenceNode {
		return fmt.Sprintf("%s (line %d)", section, value.Line)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx >= len(value.Content) {
		return section
	}
	loc := position(section, idx, value.Content[idx])
	if len(parts) > 2 {
		loc += " field " + strconv.Quote(parts[2])
	}
	return loc
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
