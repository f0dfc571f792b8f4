// Package fsops performs the file reads, writes and directory listings behind the
// file tools. Every failure is reported as an errmodel IO error.
package fsops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wilhg/toolsrv/pkg/errmodel"
)

// ErrOutsideRoot is the cause of failures for paths that escape the root.
var ErrOutsideRoot = errors.New("fsops: path outside root")

// Entry is one directory member.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDirectory"`
}

// FS confines every path to Root. An empty Root means the process working
// directory. Absolute paths are accepted only when they fall inside Root.
type FS struct {
	Root string
}

// New returns an FS rooted at root.
func New(root string) FS { return FS{Root: root} }

// Resolve maps a caller path onto the filesystem. Paths that leave Root, through
// ".." or an absolute path elsewhere, are rejected. Symlinks are not resolved.
func (f FS) Resolve(p string) (string, error) {
	root, err := filepath.Abs(f.Root)
	if err != nil {
		return "", ioErr("resolve_failed", "Failed to resolve workspace root", p, err)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errmodel.IO("outside_workspace", "Path is outside the workspace: "+p, map[string]any{"path": p}, ErrOutsideRoot)
	}
	return full, nil
}

// ReadFile returns the file content as text.
func (f FS) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := f.Resolve(path)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", ioErr("read_failed", "Failed to read file "+path, path, err)
	}
	return string(b), nil
}

// WriteFile replaces the file content, creating parent directories as needed.
func (f FS) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ioErr("mkdir_failed", "Failed to create parent directory for "+path, path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return ioErr("write_failed", "Failed to write file "+path, path, err)
	}
	return nil
}

// ListDirectory returns the members of a directory sorted by name.
func (f FS) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(full)
	if err != nil {
		return nil, ioErr("list_failed", "Failed to list directory "+path, path, err)
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		out = append(out, Entry{Name: de.Name(), IsDir: de.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func ioErr(code, msg, path string, cause error) error {
	return errmodel.IO(code, fmt.Sprintf("%s: %v", msg, cause), map[string]any{"path": path}, cause)
}
