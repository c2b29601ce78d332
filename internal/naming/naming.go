// Package naming derives every casing variant of a human-supplied project
// name and a per-language identifier that is safe to use as a module or
// package name.
package naming

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/woud420/kickstart-sub000/internal/errs"
)

// Variants holds the derived spellings of one project name.
type Variants struct {
	Original       string // trimmed input
	Snake          string // my_cool_app
	Kebab          string // my-cool-app
	Pascal         string // MyCoolApp
	Camel          string // myCoolApp
	ScreamingSnake string // MY_COOL_APP
	Title          string // My Cool App
}

// Derive computes every variant of name. The name is split into words
// once and every variant is built from that word list. It fails with a
// ValidationError when name holds no ASCII letter or digit after diacritics
// are removed.
func Derive(name string) (Variants, error) {
	ws, err := words(name)
	if err != nil {
		return Variants{}, err
	}

	upper := make([]string, len(ws))
	capital := make([]string, len(ws))
	for i, w := range ws {
		upper[i] = strings.ToUpper(w)
		capital[i] = capitalize(w)
	}
	return Variants{
		Original:       strings.TrimSpace(name),
		Snake:          strings.Join(ws, "_"),
		Kebab:          strings.Join(ws, "-"),
		Pascal:         strings.Join(capital, ""),
		Camel:          ws[0] + strings.Join(capital[1:], ""),
		ScreamingSnake: strings.Join(upper, "_"),
		Title:          strings.Join(capital, " "),
	}, nil
}

// words folds name to ASCII, splits it on every non-alphanumeric rune and
// then on case boundaries inside each field ("HTTPServer" is http, server).
// A run of digits stays with the word it is written against: "v2" and "3d"
// are one word each. Words are lowercase.
func words(name string) ([]string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return nil, errs.Wrap(errs.KindValidation, "naming.Derive", err, "normalizing name %q", name)
	}

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !isASCIIAlnum(r)
	})
	if len(fields) == 0 {
		return nil, errs.New(errs.KindValidation, "naming.Derive",
			"name %q must contain at least one letter or digit", name)
	}

	var ws []string
	for _, f := range fields {
		ws = append(ws, splitField(f)...)
	}
	return ws, nil
}

// splitField breaks one alphanumeric field on case boundaries and glues
// digit-only pieces back onto a neighbour: the previous word, or the next
// one when the field starts with digits.
func splitField(f string) []string {
	var out []string
	pending := ""
	for _, piece := range strings.Split(strcase.ToSnake(f), "_") {
		switch {
		case piece == "":
		case allDigits(piece) && len(out) > 0:
			out[len(out)-1] += piece
		case allDigits(piece):
			pending += piece
		default:
			out = append(out, pending+piece)
			pending = ""
		}
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first byte of w when it is a letter. A word
// led by digits is left as is ("3d").
func capitalize(w string) string {
	if w == "" || w[0] < 'a' || w[0] > 'z' {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// SafeIdentifier returns a module/package identifier that is legal in the
// given language. Unknown languages get the snake_case form.
func (v Variants) SafeIdentifier(lang string) string {
	switch strings.ToLower(lang) {
	case "go", "golang":
		id := strings.ReplaceAll(strings.ToLower(v.Snake), "_", "")
		if startsWithDigit(id) {
			id = "x" + id
		}
		if goKeywords[id] {
			id += "pkg"
		}
		return id
	case "typescript", "ts", "javascript", "js":
		id := v.Kebab
		if startsWithDigit(id) {
			id = "app-" + id
		}
		if tsKeywords[id] {
			id += "_"
		}
		return id
	default:
		id := strings.ToLower(v.Snake)
		if startsWithDigit(id) {
			id = "_" + id
		}
		if reserved(lang)[id] {
			id += "_"
		}
		return id
	}
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func reserved(lang string) map[string]bool {
	switch strings.ToLower(lang) {
	case "rust", "rs":
		return rustKeywords
	case "cpp", "c++":
		return cppKeywords
	default:
		return pythonKeywords
	}
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	pythonKeywords = set("false", "none", "true", "and", "as", "assert", "async", "await",
		"break", "class", "continue", "def", "del", "elif", "else", "except", "finally",
		"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal", "not",
		"or", "pass", "raise", "return", "try", "while", "with", "yield", "test", "tests")

	rustKeywords = set("as", "async", "await", "break", "const", "continue", "crate", "dyn",
		"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in", "let", "loop",
		"match", "mod", "move", "mut", "pub", "ref", "return", "self", "static", "struct",
		"super", "trait", "true", "type", "unsafe", "use", "where", "while", "core", "std")

	goKeywords = set("break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface", "map",
		"package", "range", "return", "select", "struct", "switch", "type", "var", "main")

	tsKeywords = set("break", "case", "catch", "class", "const", "continue", "debugger",
		"default", "delete", "do", "else", "enum", "export", "extends", "false", "finally",
		"for", "function", "if", "import", "in", "instanceof", "new", "null", "return",
		"super", "switch", "this", "throw", "true", "try", "typeof", "var", "void", "while",
		"with")

	cppKeywords = set("auto", "bool", "break", "case", "catch", "char", "class", "const",
		"continue", "default", "delete", "do", "double", "else", "enum", "explicit", "false",
		"float", "for", "friend", "goto", "if", "inline", "int", "long", "namespace", "new",
		"operator", "private", "protected", "public", "return", "short", "signed", "sizeof",
		"static", "struct", "switch", "template", "this", "throw", "true", "try", "typedef",
		"union", "unsigned", "using", "virtual", "void", "volatile", "while")
)
