//go:build integration

package integration_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woud420/kickstart-sub000/internal/config"
	"github.com/woud420/kickstart-sub000/internal/registry"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir      string // $HOME, holds .kickstart/config.yaml
	TemplatesDir string // user template directory layered over the builtin catalog
	ProjectDir   string // where the manifest lives and components are generated
}

// setupTestEnv creates isolated temp directories and sets environment variables
// so config loading never touches the real home directory.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:      t.TempDir(),
		TemplatesDir: t.TempDir(),
		ProjectDir:   t.TempDir(),
	}
	t.Setenv("HOME", env.HomeDir)
	return env
}

// copyManifest copies a manifest fixture from internal/manifest/testdata into
// dir and returns its new path.
func copyManifest(t *testing.T, name, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "manifest", "testdata", name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	path := filepath.Join(dir, "kickstart.yaml")
	if filepath.Ext(name) == ".md" {
		path = filepath.Join(dir, "manifest.md")
	}
	writeFile(t, path, string(data))
	return path
}

// loadRegistry loads the user template directory over the builtin catalog.
func loadRegistry(t *testing.T, templatesDir string) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(registry.DefaultSources(templatesDir), registry.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return reg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// readTree returns every regular file below root keyed by slash path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return files
}

// loadRegistryWith loads the registry the way the CLI does, with the
// configured template directory and default languages.
func loadRegistryWith(t *testing.T, s *config.Settings) *registry.Registry {
	t.Helper()
	opts := append(s.RegistryOptions(), registry.WithLogger(quietLogger()))
	reg, err := registry.Load(registry.DefaultSources(s.TemplatesDir), opts...)
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return reg
}
