package order

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

// BuildArchive zips exactly the given relative paths. The whole build fails if
// any of them cannot be opened. The returned reader is positioned at the start.
func (h *Handler) BuildArchive(paths []string) (*bytes.Reader, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyArchive
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]struct{}, len(paths))
	for _, rel := range paths {
		name := h.entryName(rel)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if err := h.addEntry(zw, rel, name); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// ArchiveName is the upload file name for an order.
func (h *Handler) ArchiveName() string {
	return h.id + ".zip"
}

// EntryName normalizes a relative path to the zip convention.
func EntryName(rel string) string {
	return path.Clean(strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/"))
}

// entryName is EntryName with the order id segment spelled as on disk, so
// paths differing only in its case share one entry.
func (h *Handler) entryName(rel string) string {
	if p, ok := h.resolve(rel); ok {
		return filepath.ToSlash(p)
	}
	return EntryName(rel)
}

func (h *Handler) addEntry(zw *zip.Writer, rel, name string) error {
	f, ok := h.OpenFile(rel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrArchiveEntry, rel)
	}
	defer f.Close()

	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	if p, ok := h.resolve(rel); ok {
		if info, err := h.fs.Stat(p); err == nil {
			header.Modified = info.ModTime()
		}
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchiveEntry, rel, err)
	}
	return nil
}
