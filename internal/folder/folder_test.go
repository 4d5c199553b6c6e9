package folder

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
)

func newTestOpener(t *testing.T, dirs ...string) (*Opener, afero.Fs) {
	t.Helper()
	base := afero.NewMemMapFs()
	for _, d := range dirs {
		if err := base.MkdirAll("/data/"+d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return NewOpener(base, "/data"), base
}

func TestOpen(t *testing.T) {
	o, base := newTestOpener(t, "inbox", "outbox")
	if err := afero.WriteFile(base, "/data/file.txt", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		rel     string
		wantErr error
	}{
		{"plain", "inbox", nil},
		{"leading slash", "/outbox", nil},
		{"trailing slash", "inbox/", nil},
		{"escape", "../etc", ErrOutsideRoot},
		{"nested escape", "inbox/../../etc", ErrOutsideRoot},
		{"empty", "  ", ErrOutsideRoot},
		{"missing", "nope", ErrNotFound},
		{"file", "file.txt", ErrNotDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := o.Open(tt.rel)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Open(%q): %v", tt.rel, err)
				}
				if d.Name() == "" {
					t.Error("empty handle name")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open(%q) error = %v, want %v", tt.rel, err, tt.wantErr)
			}
		})
	}
}

func TestDir_ReadWriteRemove(t *testing.T) {
	o, _ := newTestOpener(t, "inbox")
	d, err := o.Open("inbox")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := d.Exists("car.jpg")
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}
	if err := d.WriteFile("car.jpg", []byte("abc")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ok, err = d.Exists("car.jpg")
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}
	got, err := d.ReadFile("car.jpg")
	if err != nil || string(got) != "abc" {
		t.Fatalf("ReadFile = %q, %v", got, err)
	}
	if err := d.Remove("car.jpg"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := d.ReadFile("car.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile after remove error = %v, want ErrNotFound", err)
	}
	if err := d.Remove("car.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
}

func TestDir_OpenEntry(t *testing.T) {
	o, _ := newTestOpener(t, "inbox")
	d, _ := o.Open("inbox")
	if err := d.WriteFile("car.jpg", []byte("abcdef")); err != nil {
		t.Fatal(err)
	}

	r, err := d.Open("car.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	head := make([]byte, 3)
	if _, err := io.ReadFull(r, head); err != nil || string(head) != "abc" {
		t.Errorf("head = %q, %v", head, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, err := d.Open("missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open missing error = %v, want ErrNotFound", err)
	}
	if _, err := d.Open("../x"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Open bad name error = %v, want ErrInvalidName", err)
	}
	d.Revoke()
	if _, err := d.Open("car.jpg"); !errors.Is(err, ErrAccessLost) {
		t.Errorf("Open after revoke error = %v, want ErrAccessLost", err)
	}
}

func TestDir_InvalidNames(t *testing.T) {
	o, _ := newTestOpener(t, "inbox")
	d, _ := o.Open("inbox")
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		if err := d.WriteFile(name, nil); !errors.Is(err, ErrInvalidName) {
			t.Errorf("WriteFile(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDir_EntriesSortedAndNonRecursive(t *testing.T) {
	o, base := newTestOpener(t, "inbox/sub")
	for _, n := range []string{"b.jpg", "a.jpg", "sub/deep.jpg"} {
		if err := afero.WriteFile(base, "/data/inbox/"+n, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	d, _ := o.Open("inbox")
	entries, err := d.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"a.jpg", "b.jpg", "sub"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entries = %v, want %v", names, want)
			break
		}
	}
}

func TestDir_AccessLost(t *testing.T) {
	t.Run("revoked", func(t *testing.T) {
		o, _ := newTestOpener(t, "inbox")
		d, _ := o.Open("inbox")
		d.Revoke()
		if _, err := d.Entries(context.Background()); !errors.Is(err, ErrAccessLost) {
			t.Errorf("Entries error = %v, want ErrAccessLost", err)
		}
		if err := d.WriteFile("x.jpg", nil); !errors.Is(err, ErrAccessLost) {
			t.Errorf("WriteFile error = %v, want ErrAccessLost", err)
		}
	})
	t.Run("directory removed", func(t *testing.T) {
		o, base := newTestOpener(t, "inbox")
		d, _ := o.Open("inbox")
		if err := base.RemoveAll("/data/inbox"); err != nil {
			t.Fatal(err)
		}
		if _, err := d.Entries(context.Background()); !errors.Is(err, ErrAccessLost) {
			t.Errorf("Entries error = %v, want ErrAccessLost", err)
		}
		if _, err := d.ReadFile("x.jpg"); !errors.Is(err, ErrAccessLost) {
			t.Errorf("ReadFile error = %v, want ErrAccessLost", err)
		}
	})
}

func TestDir_SameEntry(t *testing.T) {
	o, _ := newTestOpener(t, "inbox", "outbox")
	a, _ := o.Open("inbox")
	b, _ := o.Open("/inbox/")
	c, _ := o.Open("outbox")

	if !a.SameEntry(b) {
		t.Error("same folder opened twice should be SameEntry")
	}
	if a.SameEntry(c) {
		t.Error("different folders reported as SameEntry")
	}

	other, _ := newTestOpener(t, "inbox")
	d, _ := other.Open("inbox")
	if a.SameEntry(d) {
		t.Error("folders on different filesystems reported as SameEntry")
	}
}
