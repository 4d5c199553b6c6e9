package renamer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"autoplate-renamer/internal/folder"
)

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

func detectMime(data []byte) string {
	return mimetype.Detect(data).String()
}

func sniffMime(dir folder.Handle, name string) (string, error) {
	r, err := dir.Open(name)
	if err != nil {
		return "", err
	}
	defer r.Close()
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// Scan lists dir (non-recursively) and returns a new idle item for every
// image whose name is not in known. It never touches the caller's
// collection. Losing the directory is reported as folder.ErrAccessLost.
func Scan(ctx context.Context, dir folder.Handle, known map[string]struct{}) ([]*FileItem, error) {
	entries, err := dir.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var found []*FileItem
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if _, ok := known[e.Name]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// only the head is read until the entry is known to be an image
		mimeType, err := sniffMime(dir, e.Name)
		if err != nil {
			// removed between listing and reading
			if errors.Is(err, folder.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("sniff %s: %w", e.Name, err)
		}
		if !isImage(mimeType) {
			continue
		}

		data, err := dir.ReadFile(e.Name)
		if err != nil {
			if errors.Is(err, folder.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", e.Name, err)
		}
		found = append(found, newFileItem(uuid.NewString(), e.Name, mimeType, data, true))
	}
	return found, nil
}
