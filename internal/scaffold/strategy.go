package scaffold

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/naming"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

const (
	defaultDevPort   = "5173"
	defaultMonorepo  = "monorepo"
	composeDir       = "infra/docker"
	portAttribute    = "port"
	fallbackSvcPort  = "8000"
	noComponentsNote = "No components were generated alongside this monorepo."
)

// strategyInput is what a kind strategy derives its context extras from.
type strategyInput struct {
	req      component.Request
	name     string
	root     string             // absolute destination
	language *registry.Language // nil when the language is not declared
	siblings []ComponentResult  // earlier results in the same run
}

// strategy holds the kind-specific parts of generation.
type strategy interface {
	// name returns the name used for the context, defaulting it when the
	// kind allows an empty one.
	name(req component.Request, root string) string
	// extras returns context values only this kind provides.
	extras(in strategyInput) (map[string]string, error)
}

var strategies = map[component.Kind]strategy{
	component.KindService:  serviceStrategy{},
	component.KindFrontend: frontendStrategy{},
	component.KindLibrary:  libraryStrategy{},
	component.KindCLI:      cliStrategy{},
	component.KindMonorepo: monorepoStrategy{},
}

func strategyFor(kind component.Kind) strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return libraryStrategy{}
}

type requestName struct{}

func (requestName) name(req component.Request, _ string) string {
	return strings.TrimSpace(req.Name)
}

type serviceStrategy struct{ requestName }

func (serviceStrategy) extras(in strategyInput) (map[string]string, error) {
	v, err := naming.Derive(in.name)
	if err != nil {
		return nil, err
	}
	fallback := fallbackSvcPort
	if in.language != nil && in.language.DefaultPort > 0 {
		fallback = strconv.Itoa(in.language.DefaultPort)
	}
	port, err := portFrom(in.req, fallback)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"service_port": port,
		"image_name":   v.Kebab,
	}, nil
}

type frontendStrategy struct{ requestName }

func (frontendStrategy) extras(in strategyInput) (map[string]string, error) {
	v, err := naming.Derive(in.name)
	if err != nil {
		return nil, err
	}
	port, err := portFrom(in.req, defaultDevPort)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"dev_port":   port,
		"image_name": v.Kebab,
	}, nil
}

type libraryStrategy struct{ requestName }

func (libraryStrategy) extras(strategyInput) (map[string]string, error) {
	return nil, nil
}

type cliStrategy struct{ requestName }

func (cliStrategy) extras(in strategyInput) (map[string]string, error) {
	v, err := naming.Derive(in.name)
	if err != nil {
		return nil, err
	}
	return map[string]string{"binary_name": v.Kebab}, nil
}

// portFrom reads the port attribute, falling back when it is unset.
func portFrom(req component.Request, fallback string) (string, error) {
	raw := strings.TrimSpace(req.Attributes[portAttribute])
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 65535 {
		return "", errs.New(errs.KindValidation, "scaffold.port",
			"%s: port %q is not a number between 1 and 65535", req.Label(), raw)
	}
	return strconv.Itoa(n), nil
}

type monorepoStrategy struct{}

// name falls back to the root's directory name, then to "monorepo".
func (monorepoStrategy) name(req component.Request, root string) string {
	if n := strings.TrimSpace(req.Name); n != "" {
		return n
	}
	base := filepath.Base(root)
	if _, err := naming.Derive(base); err == nil {
		return base
	}
	return defaultMonorepo
}

func (monorepoStrategy) extras(in strategyInput) (map[string]string, error) {
	var members []ComponentResult
	for _, s := range in.siblings {
		if s.Err == nil && s.Request.Kind != component.KindMonorepo {
			members = append(members, s)
		}
	}

	rel := make([]string, len(members))
	for i, m := range members {
		rel[i] = relSlash(in.root, m.Root)
	}

	return map[string]string{
		"component_count":        strconv.Itoa(len(members)),
		"components_markdown":    componentsTable(members, rel),
		"compose_services":       composeServices(in.root, members),
		"component_roots":        bulletList(rel),
		"component_roots_inline": strings.Join(rel, " "),
	}, nil
}

func componentsTable(members []ComponentResult, rel []string) string {
	if len(members) == 0 {
		return noComponentsNote
	}
	var b strings.Builder
	b.WriteString("| Component | Kind | Language | Path |\n")
	b.WriteString("|-----------|------|----------|------|\n")
	for i, m := range members {
		fmt.Fprintf(&b, "| %s | %s | %s | `%s` |\n", m.Name, m.Request.Kind, m.Language, rel[i])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// composeServices renders one docker compose service per generated
// service or frontend. Build contexts are relative to the compose file.
func composeServices(root string, members []ComponentResult) string {
	composeRoot := filepath.Join(root, filepath.FromSlash(composeDir))
	var b strings.Builder
	for _, m := range members {
		var portKey string
		switch m.Request.Kind {
		case component.KindService:
			portKey = "service_port"
		case component.KindFrontend:
			portKey = "dev_port"
		default:
			continue
		}
		name, _ := m.Context.Get("name_kebab")
		port, _ := m.Context.Get(portKey)
		fmt.Fprintf(&b, "  %s:\n", name)
		fmt.Fprintf(&b, "    build:\n      context: %s\n", relSlash(composeRoot, m.Root))
		if port != "" {
			fmt.Fprintf(&b, "    ports:\n      - \"%s:%s\"\n", port, port)
		}
	}
	if b.Len() == 0 {
		return "  {}"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- `" + it + "`"
	}
	return strings.Join(lines, "\n")
}

func relSlash(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
