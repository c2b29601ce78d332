// Package manifest parses and validates the document that describes the
// components to generate in one run.
//
// The YAML format groups entries under one section per component kind
// (services, frontends, libraries, clis, monorepo). Each entry supplies a
// root, a name for every kind but monorepo, an optional lang and optional
// extensions; any other scalar field is passed through as a raw attribute.
// The document is checked against an embedded JSON Schema before it is
// turned into component requests. The legacy markdown table format
// (type | name | lang | root | helm) is accepted as well.
package manifest
