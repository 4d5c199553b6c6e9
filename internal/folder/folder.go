// Package folder hands out revocable capability handles on directories under a
// single storage root. Callers never see host paths; every operation goes
// through a *Dir obtained from an Opener.
package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrAccessLost   = errors.New("folder access lost")
	ErrInvalidName  = errors.New("invalid entry name")
	ErrOutsideRoot  = errors.New("path outside storage root")
	ErrNotDirectory = errors.New("not a directory")
)

// Handle is the capability set the renamer needs on a granted folder.
type Handle interface {
	Name() string
	Entries(ctx context.Context) ([]Entry, error)
	Open(name string) (io.ReadCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Exists(name string) (bool, error)
	Remove(name string) error
	SameEntry(other Handle) bool
}

type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

type Opener struct {
	fs afero.Fs
}

// NewOpener confines all handles to root on base.
func NewOpener(base afero.Fs, root string) *Opener {
	return &Opener{fs: afero.NewBasePathFs(base, root)}
}

// Open grants a handle on rel, a slash separated path relative to the root.
func (o *Opener) Open(rel string) (*Dir, error) {
	clean, err := cleanRel(rel)
	if err != nil {
		return nil, err
	}
	info, err := o.fs.Stat(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("%w: %v", ErrAccessLost, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, rel)
	}

	name := path.Base(clean)
	if clean == "/" {
		name = "/"
	}
	return &Dir{fs: o.fs, path: clean, name: name}, nil
}

func cleanRel(rel string) (string, error) {
	rel = filepath.ToSlash(strings.TrimSpace(rel))
	if rel == "" {
		return "", fmt.Errorf("%w: empty path", ErrOutsideRoot)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
		}
	}
	return path.Clean("/" + rel), nil
}

// Dir is a granted folder. It stops working once revoked or once the
// underlying directory goes away.
type Dir struct {
	fs      afero.Fs
	path    string
	name    string
	revoked atomic.Bool
}

var _ Handle = (*Dir)(nil)

func (d *Dir) Name() string { return d.name }

// Path is the handle's location relative to the storage root.
func (d *Dir) Path() string { return d.path }

func (d *Dir) Revoke() { d.revoked.Store(true) }

func (d *Dir) checkAccess() error {
	if d.revoked.Load() {
		return ErrAccessLost
	}
	return nil
}

func (d *Dir) entryPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return path.Join(d.path, name), nil
}

// Entries lists direct children, sorted by name. Any failure to read the
// directory itself is reported as ErrAccessLost.
func (d *Dir) Entries(ctx context.Context) ([]Entry, error) {
	if err := d.checkAccess(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccessLost, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{Name: info.Name(), IsDir: info.IsDir(), Size: info.Size()})
	}
	return entries, nil
}

// Open returns a reader over name, for callers that only need its head.
func (d *Dir) Open(name string) (io.ReadCloser, error) {
	if err := d.checkAccess(); err != nil {
		return nil, err
	}
	p, err := d.entryPath(name)
	if err != nil {
		return nil, err
	}
	f, err := d.fs.Open(p)
	if err != nil {
		return nil, d.classify(name, err)
	}
	return f, nil
}

func (d *Dir) ReadFile(name string) ([]byte, error) {
	if err := d.checkAccess(); err != nil {
		return nil, err
	}
	p, err := d.entryPath(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(d.fs, p)
	if err != nil {
		return nil, d.classify(name, err)
	}
	return data, nil
}

func (d *Dir) WriteFile(name string, data []byte) error {
	if err := d.checkAccess(); err != nil {
		return err
	}
	p, err := d.entryPath(name)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(d.fs, p, data, 0o644); err != nil {
		return d.classify(name, err)
	}
	return nil
}

// Exists reports whether name is present. A missing entry is not an error.
func (d *Dir) Exists(name string) (bool, error) {
	if err := d.checkAccess(); err != nil {
		return false, err
	}
	p, err := d.entryPath(name)
	if err != nil {
		return false, err
	}
	if _, err := d.fs.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, d.classify(name, err)
	}
	return true, nil
}

func (d *Dir) Remove(name string) error {
	if err := d.checkAccess(); err != nil {
		return err
	}
	p, err := d.entryPath(name)
	if err != nil {
		return err
	}
	if err := d.fs.Remove(p); err != nil {
		return d.classify(name, err)
	}
	return nil
}

// SameEntry reports whether other refers to the same directory on the same
// filesystem.
func (d *Dir) SameEntry(other Handle) bool {
	o, ok := other.(*Dir)
	if !ok || o == nil {
		return false
	}
	return d.fs == o.fs && d.path == o.path
}

// classify maps an entry-level error. If the directory itself is gone the
// result is ErrAccessLost, otherwise a missing entry is ErrNotFound.
func (d *Dir) classify(name string, err error) error {
	if _, statErr := d.fs.Stat(d.path); statErr != nil {
		return fmt.Errorf("%w: %v", ErrAccessLost, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if errors.Is(err, fs.ErrPermission) || os.IsPermission(err) {
		return fmt.Errorf("%w: %v", ErrAccessLost, err)
	}
	return err
}
