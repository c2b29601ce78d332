package materialize

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/woud420/kickstart-sub000/internal/errs"
	"github.com/woud420/kickstart-sub000/internal/platform"
)

// Status is the outcome for one planned file.
type Status string

const (
	StatusWritten         Status = "written"
	StatusSkippedConflict Status = "skipped-conflict"
	StatusOverridden      Status = "overridden-by-extension"
	StatusFailed          Status = "failed"
)

// maxReportedConflicts caps the paths named in a conflict error.
const maxReportedConflicts = 5

// File is one rendered file to write.
type File struct {
	Path       string      // slash-separated, relative to the root
	Content    []byte      // rendered content
	Mode       fs.FileMode // permission bits
	Overridden bool        // an extension replaced the base template for this path
}

// FileResult reports what happened to one planned file.
type FileResult struct {
	Path     string
	Status   Status
	Replaced bool  // an existing file was overwritten in force mode
	Err      error // set when Status is StatusFailed
}

// Options controls one Write call.
type Options struct {
	Force bool
	// Owned lists directories inside the root that belong to components
	// already generated in the same run. They do not make the root count
	// as non-empty.
	Owned []string
}

// Writer materializes files on the local filesystem.
type Writer struct {
	logger    *slog.Logger
	writeFile func(name string, data []byte, perm os.FileMode) error
	mkdirAll  func(path string, perm os.FileMode) error
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWriteFunc replaces os.WriteFile for file contents, e.g. to route
// writes through another filesystem layer.
func WithWriteFunc(fn func(name string, data []byte, perm os.FileMode) error) WriterOption {
	return func(w *Writer) {
		if fn != nil {
			w.writeFile = fn
		}
	}
}

// NewWriter returns a Writer backed by the os package.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{
		logger:    slog.New(slog.DiscardHandler),
		writeFile: os.WriteFile,
		mkdirAll:  os.MkdirAll,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write creates root and every file under it. The returned results cover
// every planned file on a conflict, and every attempted file otherwise.
func (w *Writer) Write(root string, files []File, opts Options) ([]FileResult, error) {
	const op = "materialize.Write"

	occupied, err := w.occupied(root, opts.Owned)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool)
	var collisions []string
	for _, f := range files {
		if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(f.Path))); err == nil {
			existing[f.Path] = true
			collisions = append(collisions, f.Path)
		}
	}

	if (len(occupied) > 0 || len(collisions) > 0) && !opts.Force {
		results := make([]FileResult, len(files))
		for i, f := range files {
			results[i] = FileResult{Path: f.Path, Status: StatusSkippedConflict}
		}
		return results, errs.New(errs.KindDestinationConflict, op,
			"destination %s is not empty (%s); use force to overwrite colliding files",
			root, describeConflict(occupied, collisions))
	}

	if err := w.mkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.KindFilesystemWrite, op, err, "creating %s", root)
	}

	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		res := FileResult{Path: f.Path, Status: StatusWritten, Replaced: existing[f.Path]}
		if f.Overridden {
			res.Status = StatusOverridden
		}

		if err := w.writeOne(root, f); err != nil {
			res.Status = StatusFailed
			res.Err = err
			results = append(results, res)
			return results, errs.Wrap(errs.KindFilesystemWrite, op, err, "writing %s", f.Path)
		}

		w.logger.Debug("wrote file", "root", root, "path", f.Path, "replaced", res.Replaced)
		results = append(results, res)
	}
	return results, nil
}

func (w *Writer) writeOne(root string, f File) error {
	full := filepath.Join(root, filepath.FromSlash(f.Path))
	if err := w.mkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	mode := f.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := w.writeFile(full, f.Content, mode); err != nil {
		return err
	}
	return platform.SetExecutable(full, mode)
}

// occupied returns the root's entries that are not owned by sibling
// components. A root that is a regular file is reported as occupied.
func (w *Writer) occupied(root string, owned []string) ([]string, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindFilesystemWrite, "materialize.Write", err, "inspecting %s", root)
	}
	if !info.IsDir() {
		return []string{root + " is a file"}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errs.Wrap(errs.KindFilesystemWrite, "materialize.Write", err, "reading %s", root)
	}

	ownedAbs := absAll(owned)
	var out []string
	for _, e := range entries {
		p := absPath(filepath.Join(root, e.Name()))
		if coversOwned(p, ownedAbs) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// coversOwned reports whether p is an owned directory or one of its ancestors.
func coversOwned(p string, owned []string) bool {
	for _, o := range owned {
		if o == p || strings.HasPrefix(o, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func absAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = absPath(p)
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func describeConflict(occupied, collisions []string) string {
	var parts []string
	if len(collisions) > 0 {
		parts = append(parts, fmt.Sprintf("existing files: %s", truncate(collisions)))
	}
	if len(occupied) > 0 {
		parts = append(parts, fmt.Sprintf("existing entries: %s", truncate(occupied)))
	}
	return strings.Join(parts, "; ")
}

func truncate(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	if len(sorted) > maxReportedConflicts {
		return strings.Join(sorted[:maxReportedConflicts], ", ") +
			fmt.Sprintf(" and %d more", len(sorted)-maxReportedConflicts)
	}
	return strings.Join(sorted, ", ")
}
