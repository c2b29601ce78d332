package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/woud420/kickstart-sub000/internal/component"
	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/materialize"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

func builtinRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load([]registry.Source{registry.Builtin()})
	if err != nil {
		t.Fatalf("loading builtin registry: %v", err)
	}
	return reg
}

func twoComponents() []component.Request {
	return []component.Request{
		{Kind: component.KindService, Name: "user-service", Language: "python", Root: "services/user-service"},
		{Kind: component.KindFrontend, Name: "dashboard", Root: "apps/dashboard"},
	}
}

func run(t *testing.T, reg *registry.Registry, opts Options, reqs []component.Request) *Summary {
	t.Helper()
	s, err := New(reg, opts).Run(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(s.Components) != len(reqs) {
		t.Fatalf("summary has %d components, want %d", len(s.Components), len(reqs))
	}
	return s
}

func TestRunTwoComponents(t *testing.T) {
	dir := t.TempDir()
	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, twoComponents())

	if got, want := len(s.Succeeded()), 2; got != want {
		t.Fatalf("succeeded = %d, want %d: %v", got, want, s.Err())
	}
	if len(s.Failed()) != 0 || !s.OK() || s.Err() != nil {
		t.Errorf("expected no failures, got %v", s.Err())
	}

	for _, c := range s.Components {
		entries, err := os.ReadDir(c.Root)
		if err != nil || len(entries) == 0 {
			t.Errorf("root %s is missing or empty", c.Root)
		}
	}

	svc := s.Components[0]
	if svc.Language != "python" || svc.Root != filepath.Join(dir, "services", "user-service") {
		t.Errorf("service result = %s at %s", svc.Language, svc.Root)
	}
	main := readGenerated(t, dir, "services/user-service/src/main.py")
	assertNotContains(t, main, "{{")

	fe := s.Components[1]
	if fe.Language != "typescript" {
		t.Errorf("frontend language = %q, want the kind default typescript", fe.Language)
	}
	pkg := readGenerated(t, dir, "apps/dashboard/package.json")
	assertContains(t, pkg, `"name": "dashboard"`)
	assertContains(t, pkg, "vite --port 5173")
}

func TestRunIdempotent(t *testing.T) {
	reg := builtinRegistry(t)
	first, second := t.TempDir(), t.TempDir()
	reqs := append(twoComponents(), component.Request{Kind: component.KindMonorepo, Name: "platform", Root: "."})

	run(t, reg, Options{BaseDir: first}, reqs)
	run(t, reg, Options{BaseDir: second}, reqs)

	a, b := snapshot(t, first), snapshot(t, second)
	if len(a) == 0 {
		t.Fatal("nothing generated")
	}
	if !reflect.DeepEqual(a, b) {
		for p := range a {
			if a[p] != b[p] {
				t.Errorf("%s differs between runs", p)
			}
		}
		t.Fatalf("trees differ: %d vs %d files", len(a), len(b))
	}
}

func TestRunConflictLaw(t *testing.T) {
	reg := builtinRegistry(t)
	dir := t.TempDir()
	reqs := twoComponents()[:1]

	run(t, reg, Options{BaseDir: dir}, reqs)
	before := snapshot(t, dir)

	s := run(t, reg, Options{BaseDir: dir}, reqs)
	if s.OK() {
		t.Fatal("second run into a non-empty root should fail")
	}
	c := s.Components[0]
	if !errs.Is(c.Err, errs.KindDestinationConflict) {
		t.Fatalf("error = %v, want DestinationConflictError", c.Err)
	}
	if len(c.Files) == 0 || c.Count(materialize.StatusSkippedConflict) != len(c.Files) {
		t.Errorf("every file should be skipped-conflict, got %+v", c.Files)
	}
	if after := snapshot(t, dir); !reflect.DeepEqual(before, after) {
		t.Error("conflicting run modified the first run's files")
	}
}

func TestRunForceOverwrites(t *testing.T) {
	reg := builtinRegistry(t)
	dir := t.TempDir()
	reqs := twoComponents()[:1]
	run(t, reg, Options{BaseDir: dir}, reqs)

	readme := filepath.Join(dir, "services", "user-service", "README.md")
	if err := os.WriteFile(readme, []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	extra := filepath.Join(dir, "services", "user-service", "NOTES.md")
	if err := os.WriteFile(extra, []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}

	s := run(t, reg, Options{BaseDir: dir, Force: true}, reqs)
	if !s.OK() {
		t.Fatalf("forced run failed: %v", s.Err())
	}
	for _, f := range s.Components[0].Files {
		if !f.Replaced {
			t.Errorf("%s should be reported as replaced", f.Path)
		}
	}
	assertContains(t, readGenerated(t, dir, "services/user-service/README.md"), "User Service")
	if got := readGenerated(t, dir, "services/user-service/NOTES.md"); got != "mine" {
		t.Errorf("unrelated file changed to %q", got)
	}
}

func TestRunOverrideLaw(t *testing.T) {
	dir := t.TempDir()
	reqs := []component.Request{{
		Kind:       component.KindService,
		Name:       "user-service",
		Language:   "python",
		Root:       "svc",
		Extensions: []string{"postgres", "jwt"},
	}}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, reqs)
	if !s.OK() {
		t.Fatalf("run failed: %v", s.Err())
	}

	users := readGenerated(t, dir, "svc/src/routes/users.py")
	assertContains(t, users, "from src.handler.auth import current_subject")

	var status materialize.Status
	for _, f := range s.Components[0].Files {
		if f.Path == "src/routes/users.py" {
			status = f.Status
		}
	}
	if status != materialize.StatusOverridden {
		t.Errorf("users.py status = %q, want %q", status, materialize.StatusOverridden)
	}

	reqsTxt := readGenerated(t, dir, "svc/requirements.txt")
	assertContains(t, reqsTxt, "sqlalchemy>=2.0")
	assertContains(t, reqsTxt, "pyjwt>=2.9")
	if strings.Index(reqsTxt, "sqlalchemy") > strings.Index(reqsTxt, "pyjwt") {
		t.Error("extension requirements should follow request order")
	}
	readGenerated(t, dir, "svc/src/clients/database.py")
}

func TestRunMonorepoLast(t *testing.T) {
	dir := t.TempDir()
	reqs := []component.Request{
		{Kind: component.KindMonorepo, Root: "."},
		{Kind: component.KindService, Name: "api", Language: "go", Root: "services/api"},
		{Kind: component.KindFrontend, Name: "web", Root: "apps/web"},
		{Kind: component.KindLibrary, Name: "shared", Root: "libs/shared"},
	}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir, Parallelism: 2}, reqs)
	if !s.OK() {
		t.Fatalf("run failed: %v", s.Err())
	}

	var kinds []component.Kind
	for _, c := range s.Components {
		kinds = append(kinds, c.Request.Kind)
	}
	want := []component.Kind{component.KindService, component.KindFrontend, component.KindLibrary, component.KindMonorepo}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("order = %v, want %v", kinds, want)
	}

	mono := s.Components[3]
	if mono.Name != filepath.Base(dir) {
		t.Errorf("monorepo name = %q, want the root's base name %q", mono.Name, filepath.Base(dir))
	}

	readme := readGenerated(t, dir, "README.md")
	assertContains(t, readme, "Monorepo with 3 component(s).")
	assertContains(t, readme, "| api | service | go | `services/api` |")
	assertContains(t, readme, "| shared | library | python | `libs/shared` |")

	compose := readGenerated(t, dir, "infra/docker/docker-compose.yml")
	assertContains(t, compose, "  api:\n    build:\n      context: ../../services/api\n    ports:\n      - \"8080:8080\"")
	assertContains(t, compose, "context: ../../apps/web")
	assertContains(t, compose, "\"5173:5173\"")
	assertNotContains(t, compose, "shared")

	workflow := readGenerated(t, dir, ".github/workflows/test.yml")
	assertContains(t, workflow, "for dir in services/api apps/web libs/shared; do")

	deploy := readGenerated(t, dir, ".github/workflows/deploy.yml")
	assertContains(t, deploy, "${{ inputs.environment }}")
}

func TestRunMonorepoWithoutSiblings(t *testing.T) {
	dir := t.TempDir()
	reqs := []component.Request{{Kind: component.KindMonorepo, Name: "Platform Infra", Root: "infra-repo", Extensions: []string{"helm"}}}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, reqs)
	if !s.OK() {
		t.Fatalf("run failed: %v", s.Err())
	}
	assertContains(t, readGenerated(t, dir, "infra-repo/README.md"), "No components were generated")
	assertContains(t, readGenerated(t, dir, "infra-repo/infra/docker/docker-compose.yml"), "services:\n  {}")
	readGenerated(t, dir, "infra-repo/infra/helm/platform-infra/Chart.yaml")
}

func TestRunMonorepoDependencyFailed(t *testing.T) {
	dir := t.TempDir()
	reqs := []component.Request{
		{Kind: component.KindService, Name: "api", Language: "python", Root: "services/api", Extensions: []string{"mongo"}},
		{Kind: component.KindLibrary, Name: "shared", Root: "libs/shared"},
		{Kind: component.KindMonorepo, Root: "."},
	}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, reqs)

	if s.OK() {
		t.Fatal("run should fail")
	}
	if got := len(s.Succeeded()); got != 1 {
		t.Errorf("succeeded = %d, want 1 (the library)", got)
	}
	if !errs.Is(s.Components[0].Err, errs.KindTemplateNotFound) {
		t.Errorf("service error = %v, want TemplateNotFoundError", s.Components[0].Err)
	}
	mono := s.Components[2]
	if !errs.Is(mono.Err, errs.KindDependencyFailed) {
		t.Fatalf("monorepo error = %v, want DependencyFailedError", mono.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err == nil {
		t.Error("monorepo files were written despite a failed sibling")
	}
	if !errs.Is(s.Err(), errs.KindDependencyFailed) || !errs.Is(s.Err(), errs.KindTemplateNotFound) {
		t.Errorf("Summary.Err() = %v, should carry both failures", s.Err())
	}
}

func TestRunWriteFailure(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("disk full")
	failing := filepath.Join("services", "api", "src", "main.py")

	writer := materialize.NewWriter(materialize.WithWriteFunc(func(name string, data []byte, perm os.FileMode) error {
		if strings.HasSuffix(name, failing) {
			return boom
		}
		return os.WriteFile(name, data, perm)
	}))

	reqs := []component.Request{
		{Kind: component.KindService, Name: "api", Language: "python", Root: "services/api"},
		{Kind: component.KindLibrary, Name: "shared", Root: "libs/shared"},
		{Kind: component.KindMonorepo, Root: "."},
	}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir, Writer: writer}, reqs)

	svc := s.Components[0]
	if svc.OK() || !errs.Is(svc.Err, errs.KindFilesystemWrite) {
		t.Fatalf("service error = %v, want FilesystemWriteError", svc.Err)
	}
	if !errors.Is(svc.Err, boom) {
		t.Errorf("service error does not wrap the cause: %v", svc.Err)
	}
	if n := svc.Count(materialize.StatusFailed); n != 1 {
		t.Errorf("failed files = %d, want 1", n)
	}
	if last := svc.Files[len(svc.Files)-1]; last.Path != "src/main.py" || last.Status != materialize.StatusFailed {
		t.Errorf("last file result = %+v, want src/main.py failed", last)
	}

	// Files sorted before the failing one stay on disk.
	readGenerated(t, dir, "services/api/README.md")
	if _, err := os.Stat(filepath.Join(dir, "services", "api", "src", "routes", "health.py")); err == nil {
		t.Error("files after the failed write should not be attempted")
	}

	if !s.Components[1].OK() {
		t.Errorf("library should succeed: %v", s.Components[1].Err)
	}
	mono := s.Components[2]
	if !errs.Is(mono.Err, errs.KindDependencyFailed) {
		t.Fatalf("monorepo error = %v, want DependencyFailedError", mono.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.md")); err == nil {
		t.Error("monorepo files were written despite a failed sibling")
	}
}

func TestRunRootValidation(t *testing.T) {
	tests := []struct {
		name string
		reqs []component.Request
		want string
	}{
		{
			name: "duplicate roots",
			reqs: []component.Request{
				{Kind: component.KindService, Name: "a", Root: "x"},
				{Kind: component.KindLibrary, Name: "b", Root: "x/"},
			},
			want: "share the root",
		},
		{
			name: "nested in a service",
			reqs: []component.Request{
				{Kind: component.KindService, Name: "a", Root: "x"},
				{Kind: component.KindLibrary, Name: "b", Root: "x/lib"},
			},
			want: "nested inside",
		},
		{
			name: "monorepo nested in a library",
			reqs: []component.Request{
				{Kind: component.KindMonorepo, Root: "lib/infra"},
				{Kind: component.KindLibrary, Name: "b", Root: "lib"},
			},
			want: "nested inside",
		},
		{
			name: "missing root",
			reqs: []component.Request{{Kind: component.KindService, Name: "a"}},
			want: "root is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := New(builtinRegistry(t), Options{BaseDir: dir}).Run(context.Background(), tt.reqs)
			if s != nil {
				t.Error("a run-fatal error should not return a summary")
			}
			if !errs.Is(err, errs.KindValidation) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			assertContains(t, err.Error(), tt.want)
			if entries, _ := os.ReadDir(dir); len(entries) != 0 {
				t.Errorf("files were written: %v", entries)
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reqs := append(twoComponents(), component.Request{Kind: component.KindMonorepo, Root: "."})
	s, err := New(builtinRegistry(t), Options{BaseDir: dir}).Run(ctx, reqs)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !errs.Is(s.Components[0].Err, errs.KindCanceled) || !errs.Is(s.Components[1].Err, errs.KindCanceled) {
		t.Errorf("siblings should be canceled: %v", s.Err())
	}
	if !errs.Is(s.Components[2].Err, errs.KindDependencyFailed) {
		t.Errorf("monorepo error = %v, want DependencyFailedError", s.Components[2].Err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("files were written: %v", entries)
	}
}

func TestGenerateRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		req  component.Request
		kind errs.Kind
	}{
		{"missing name", component.Request{Kind: component.KindService, Root: "a"}, errs.KindValidation},
		{"unknown language", component.Request{Kind: component.KindService, Name: "a", Language: "cobol", Root: "a"}, errs.KindTemplateNotFound},
		{"extension for another language", component.Request{Kind: component.KindService, Name: "a", Language: "rust", Root: "a", Extensions: []string{"jwt"}}, errs.KindTemplateNotFound},
		{"bad port", component.Request{Kind: component.KindService, Name: "a", Root: "a", Attributes: map[string]string{"port": "http"}}, errs.KindValidation},
		{"reserved attribute", component.Request{Kind: component.KindService, Name: "a", Root: "a", Attributes: map[string]string{"name_snake": "x"}}, errs.KindValidation},
		{"unrequested extension value", component.Request{Kind: component.KindService, Name: "a", Root: "a", Attributes: map[string]string{"postgres_port": "1"}}, errs.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := New(builtinRegistry(t), Options{BaseDir: dir}).Generate(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if got := s.Components[0].Err; !errs.Is(got, tt.kind) {
				t.Fatalf("error = %v, want %s", got, tt.kind)
			}
			if _, err := os.Stat(filepath.Join(dir, "a")); err == nil {
				t.Error("root was created for a failed component")
			}
		})
	}
}

func TestGenerateServiceExtras(t *testing.T) {
	dir := t.TempDir()
	req := component.Request{
		Kind:       component.KindService,
		Name:       "Billing API",
		Root:       "billing",
		Attributes: map[string]string{"port": "9000", "owner": "payments"},
	}
	s, err := New(builtinRegistry(t), Options{BaseDir: dir}).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	c := s.Components[0]
	if !c.OK() {
		t.Fatalf("generate failed: %v", c.Err)
	}
	for key, want := range map[string]string{
		"service_port": "9000",
		"image_name":   "billing-api",
		"owner":        "payments",
		"has_postgres": "false",
		"extensions":   "none",
	} {
		if got, _ := c.Context.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	assertContains(t, readGenerated(t, dir, "billing/scripts/entrypoint.sh"), "${PORT:-9000}")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "billing", "scripts", "entrypoint.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0100 == 0 {
			t.Errorf("entrypoint.sh mode = %v, want executable", info.Mode())
		}
	}
}

func TestGenerateCLIAndLibraryNames(t *testing.T) {
	dir := t.TempDir()
	reqs := []component.Request{
		{Kind: component.KindCLI, Name: "Ops Ctl", Language: "go", Root: "tools/opsctl"},
		{Kind: component.KindLibrary, Name: "shared-models", Language: "python", Root: "libs/shared"},
	}
	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, reqs)
	if !s.OK() {
		t.Fatalf("run failed: %v", s.Err())
	}
	if got, _ := s.Components[0].Context.Get("binary_name"); got != "ops-ctl" {
		t.Errorf("binary_name = %q, want ops-ctl", got)
	}
	readGenerated(t, dir, "libs/shared/src/shared_models/__init__.py")
}

func TestRenderErrorsAreJoined(t *testing.T) {
	catalog := fstest.MapFS{
		"library/python/base/a.txt.tmpl":       {Data: []byte("{{first_missing}}\n")},
		"library/python/base/b.txt.tmpl":       {Data: []byte("{{second_missing}}\n")},
		"library/python/base/{{nope}}/c.tmpl":  {Data: []byte("ok\n")},
		"library/python/base/escaped.txt.tmpl": {Data: []byte("\\{{literal}}\n")},
		"library/python/base/ok.txt.tmpl":      {Data: []byte("{{name}}\n")},
	}
	reg, err := registry.Load([]registry.Source{{Name: "test", FS: catalog}})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	s, err := New(reg, Options{BaseDir: dir}).Generate(context.Background(),
		component.Request{Kind: component.KindLibrary, Name: "lib", Root: "lib"})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Components[0].Err
	if !errs.Is(got, errs.KindRender) {
		t.Fatalf("error = %v, want RenderError", got)
	}
	for _, key := range []string{"first_missing", "second_missing", "nope"} {
		assertContains(t, got.Error(), key)
	}
	assertNotContains(t, got.Error(), "literal")
	if _, err := os.Stat(filepath.Join(dir, "lib")); err == nil {
		t.Error("root was created despite render errors")
	}
}

func TestRenderedPathCollision(t *testing.T) {
	catalog := fstest.MapFS{
		"library/python/base/{{name_snake}}.py.tmpl": {Data: []byte("a\n")},
		"library/python/base/core.py.tmpl":           {Data: []byte("b\n")},
	}
	reg, err := registry.Load([]registry.Source{{Name: "test", FS: catalog}})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(reg, Options{BaseDir: t.TempDir()}).Generate(context.Background(),
		component.Request{Kind: component.KindLibrary, Name: "core", Root: "core"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Components[0].Err; !errs.Is(got, errs.KindTemplateConflict) {
		t.Fatalf("error = %v, want TemplateConflictError", got)
	}
}

func TestRunOwnedPaths(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "kickstart.yaml")
	if err := os.WriteFile(manifestPath, []byte("monorepo:\n  - root: .\n"), 0644); err != nil {
		t.Fatal(err)
	}
	reqs := []component.Request{{Kind: component.KindMonorepo, Name: "platform", Root: "."}}

	s := run(t, builtinRegistry(t), Options{BaseDir: dir}, reqs)
	if !errs.Is(s.Err(), errs.KindDestinationConflict) {
		t.Fatalf("error = %v, want DestinationConflictError", s.Err())
	}

	s = run(t, builtinRegistry(t), Options{BaseDir: dir, Owned: []string{manifestPath}}, reqs)
	if !s.OK() {
		t.Fatalf("run with the manifest owned failed: %v", s.Err())
	}
}

// ─── Test Helpers ──────────────────────────────────────────────────

func readGenerated(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

// snapshot maps every file under dir to its content.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", dir, err)
	}
	return out
}

func assertContains(t *testing.T, content, substr string) {
	t.Helper()
	if !strings.Contains(content, substr) {
		t.Errorf("content does not contain %q\n--- content ---\n%s", substr, content)
	}
}

func assertNotContains(t *testing.T, content, substr string) {
	t.Helper()
	if strings.Contains(content, substr) {
		t.Errorf("content should not contain %q", substr)
	}
}
