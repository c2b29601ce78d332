package render

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/errs"
)

var placeholder = regexp.MustCompile(`\\?\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Render substitutes every placeholder in body. id names the template in
// errors. All missing keys are reported together, sorted.
func Render(id, body string, ctx Context) (string, error) {
	matches := placeholder.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	missing := make(map[string]bool)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(body[last:start])
		last = end

		if body[start] == '\\' {
			b.WriteString(body[start+1 : end])
			continue
		}
		key := body[m[2]:m[3]]
		val, ok := ctx.Get(key)
		if !ok {
			missing[key] = true
			continue
		}
		b.WriteString(val)
	}
	b.WriteString(body[last:])

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", errs.New(errs.KindRender, "render.Render",
			"template %s: no value for %s", id, strings.Join(keys, ", "))
	}
	return b.String(), nil
}

// Path renders an output path pattern and checks that the result is a
// clean relative path that stays inside the component root.
func Path(pattern string, ctx Context) (string, error) {
	rendered, err := Render(pattern, pattern, ctx)
	if err != nil {
		return "", err
	}
	p := path.Clean(strings.ReplaceAll(rendered, "\\", "/"))
	if p == "." || path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return "", errs.New(errs.KindRender, "render.Path",
			"output path %q renders to %q, which is outside the component root", pattern, rendered)
	}
	return p, nil
}
