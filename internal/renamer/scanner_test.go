package renamer

import (
	"context"
	"errors"
	"testing"

	"autoplate-renamer/internal/folder"
)

func TestScan_ImagesOnly(t *testing.T) {
	fs := newTestFS(t, "in/nested")
	fs.write("in/a.jpg", jpeg("a"))
	fs.write("in/b.png", []byte("\x89PNG\r\n\x1a\n0000"))
	fs.write("in/notes.txt", []byte("hello there"))
	fs.write("in/nested/c.jpg", jpeg("c"))

	items, err := Scan(context.Background(), fs.open("in"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "a.jpg" || items[0].MimeType != "image/jpeg" {
		t.Errorf("first item = %s (%s)", items[0].Name, items[0].MimeType)
	}
	if items[1].Name != "b.png" || items[1].MimeType != "image/png" {
		t.Errorf("second item = %s (%s)", items[1].Name, items[1].MimeType)
	}
	for _, it := range items {
		if it.Status() != StatusIdle || !it.FromSource || it.ID == "" {
			t.Errorf("item %s not a fresh idle source item: %+v", it.Name, it.view())
		}
	}
	if items[0].ID == items[1].ID {
		t.Error("item ids collide")
	}
}

func TestScan_SkipsKnown(t *testing.T) {
	fs := newTestFS(t, "in")
	fs.write("in/a.jpg", jpeg("a"))
	fs.write("in/b.jpg", jpeg("b"))
	dir := fs.open("in")

	first, err := Scan(context.Background(), dir, nil)
	if err != nil || len(first) != 2 {
		t.Fatalf("first scan = %d items, %v", len(first), err)
	}
	known := map[string]struct{}{}
	for _, it := range first {
		known[it.Name] = struct{}{}
	}

	second, err := Scan(context.Background(), dir, known)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("second scan found %d items, want 0", len(second))
	}

	fs.write("in/c.jpg", jpeg("c"))
	third, err := Scan(context.Background(), dir, known)
	if err != nil {
		t.Fatal(err)
	}
	if len(third) != 1 || third[0].Name != "c.jpg" {
		t.Errorf("third scan = %+v, want only c.jpg", third)
	}
}

func TestScan_AccessLost(t *testing.T) {
	fs := newTestFS(t, "in")
	dir := fs.open("in")
	if err := fs.base.RemoveAll("/root/in"); err != nil {
		t.Fatal(err)
	}

	items, err := Scan(context.Background(), dir, nil)
	if !errors.Is(err, folder.ErrAccessLost) {
		t.Fatalf("error = %v, want ErrAccessLost", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil", items)
	}
}

func TestScan_NonImagesOnlySniffed(t *testing.T) {
	fs := newTestFS(t, "in")
	fs.write("in/a.jpg", jpeg("a"))
	fs.write("in/video.bin", make([]byte, 64<<10))
	dir := newSpyDir(fs.open("in"))

	for i := 0; i < 3; i++ {
		items, err := Scan(context.Background(), dir, map[string]struct{}{"a.jpg": {}})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Fatalf("scan %d found %d items, want 0", i, len(items))
		}
	}
	if n := dir.readCount("video.bin"); n != 0 {
		t.Errorf("video.bin fully read %d times, want 0", n)
	}

	items, err := Scan(context.Background(), dir, nil)
	if err != nil || len(items) != 1 {
		t.Fatalf("scan = %d items, %v", len(items), err)
	}
	if dir.readCount("a.jpg") != 1 || string(items[0].Data()) != string(jpeg("a")) {
		t.Errorf("a.jpg reads = %d, data = %q", dir.readCount("a.jpg"), items[0].Data())
	}
}
