package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
)

// ParseMarkdown parses the legacy markdown table format:
//
//	| type    | name         | lang   | root                  | helm |
//	|---------|--------------|--------|-----------------------|------|
//	| service | user-service | python | services/user-service | true |
//
// The header row names the columns. type and name are required, root
// defaults to the name, helm adds the helm extension, extensions holds a
// comma-separated list and any other column becomes a raw attribute.
func ParseMarkdown(data []byte, opts ...ParseOption) (*Manifest, error) {
	const op = "manifest.ParseMarkdown"
	p := newParser("", opts)

	type row struct {
		line  int
		cells []string
	}
	var rows []row
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
			continue
		}
		if strings.Trim(line, "|-: ") == "" {
			continue // separator row
		}
		rows = append(rows, row{line: i + 1, cells: splitCells(line)})
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.KindManifestValidation, op, "no component table found")
	}

	headers := rows[0].cells
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}
	if !slices.Contains(headers, "type") || !slices.Contains(headers, fieldName) {
		return nil, errs.New(errs.KindManifestValidation, op,
			"line %d: table header must include type and name columns", rows[0].line)
	}

	m := &Manifest{}
	for idx, r := range rows[1:] {
		pos := fmt.Sprintf("row %d (line %d)", idx+1, r.line)
		if len(r.cells) != len(headers) {
			msg := fmt.Sprintf("%s: expected %d cells, got %d; row ignored", pos, len(headers), len(r.cells))
			m.Warnings = append(m.Warnings, msg)
			p.logger.Warn("malformed manifest row ignored", "position", pos)
			continue
		}

		req := component.Request{Source: pos}
		var helm bool
		for i, h := range headers {
			val := r.cells[i]
			switch h {
			case "type":
				kind, err := component.ParseKind(val)
				if err != nil {
					return nil, errs.Wrap(errs.KindManifestValidation, op, err, "%s", pos)
				}
				req.Kind = kind
			case fieldName:
				req.Name = val
			case fieldRoot:
				req.Root = val
			case fieldLang, fieldLanguage:
				req.Language = val
			case fieldHelm:
				helm = parseBool(val)
			case fieldExtensions:
				req.Extensions = append(req.Extensions, strings.Split(val, ",")...)
			default:
				if val == "" {
					continue
				}
				if req.Attributes == nil {
					req.Attributes = make(map[string]string)
				}
				req.Attributes[h] = val
			}
		}
		if helm {
			req.Extensions = append(req.Extensions, "helm")
		}
		req.Extensions = component.NormalizeExtensions(req.Extensions)

		if req.Kind.RequiresName() && req.Name == "" {
			return nil, errs.New(errs.KindManifestValidation, op, "%s: missing required field %q", pos, fieldName)
		}
		if req.Root == "" {
			req.Root = req.Name
		}
		if req.Root == "" {
			return nil, errs.New(errs.KindManifestValidation, op, "%s: missing required field %q", pos, fieldRoot)
		}
		m.Components = append(m.Components, req)
	}

	if err := checkDuplicateRoots(m.Components); err != nil {
		return nil, err
	}
	return m, nil
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	for i, c := range parts {
		parts[i] = strings.TrimSpace(c)
	}
	return parts
}
