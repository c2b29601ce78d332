package manifest

import (
	"github.com/woud420/kickstart-sub000/internal/component"
)

// SupportedVersions is the semver constraint a manifest's optional
// version field must satisfy.
const SupportedVersions = "^1"

// Manifest is a parsed and validated component manifest.
type Manifest struct {
	Path       string              // file the manifest was read from, if any
	Version    string              // declared format version, empty when omitted
	Components []component.Request // in document order
	Warnings   []string            // non-fatal findings, e.g. unknown sections
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string // JSON pointer into the document, e.g. "/services/0/root"
	Keyword string // failing schema keyword
	Message string
}

// Field names with a fixed meaning inside an entry.
const (
	fieldName       = "name"
	fieldRoot       = "root"
	fieldLang       = "lang"
	fieldLanguage   = "language"
	fieldExtensions = "extensions"
	fieldHelm       = "helm"
	fieldVersion    = "version"
)
