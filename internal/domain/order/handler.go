// Package order inspects a single order directory produced by the acquisition
// tool and packs the files that must travel to the design service.
package order

import (
	"errors"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const descriptorExt = ".xml"

var errStopWalk = errors.New("stop walk")

// Handler answers questions about one order directory. It never writes to it.
type Handler struct {
	fs billy.Filesystem
	id string

	infoOnce sync.Once
	info     StatusInfo
}

// Validate returns a Handler for the directory named id inside fs when it
// contains <id>.xml directly. fs must be rooted at the order's parent directory.
func Validate(fs billy.Filesystem, id string) (*Handler, bool) {
	id = strings.Trim(filepath.ToSlash(id), "/")
	if id == "" || id == "." || strings.Contains(id, "/") {
		return nil, false
	}

	dirInfo, err := fs.Stat(id)
	if err != nil || !dirInfo.IsDir() {
		return nil, false
	}
	fileInfo, err := fs.Stat(fs.Join(id, id+descriptorExt))
	if err != nil || fileInfo.IsDir() {
		return nil, false
	}
	return &Handler{fs: fs, id: id}, true
}

// ValidateDir is Validate for a directory on the local disk.
func ValidateDir(dir string) (*Handler, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, false
	}
	return Validate(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
}

// OrderID is the name of the order directory.
func (h *Handler) OrderID() string {
	return h.id
}

// OrderFilePath is the descriptor's path relative to the order's parent.
func (h *Handler) OrderFilePath() string {
	return h.id + "/" + h.id + descriptorExt
}

// ReadOrderFile returns the raw descriptor.
func (h *Handler) ReadOrderFile() ([]byte, error) {
	return util.ReadFile(h.fs, h.fs.Join(h.id, h.id+descriptorExt))
}

// StatusInfo parses the descriptor once and caches the result.
func (h *Handler) StatusInfo() StatusInfo {
	h.infoOnce.Do(func() {
		data, err := h.ReadOrderFile()
		if err != nil {
			h.info = DefaultStatusInfo()
			return
		}
		h.info = parseDescriptor(data)
	})
	return h.info
}

// AllRelativePaths walks the order directory on every iteration and yields each
// regular file as a forward-slash path whose first segment is the order id.
func (h *Handler) AllRelativePaths() iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = util.Walk(h.fs, h.id, func(p string, info os.FileInfo, err error) error {
			if err != nil || info == nil || !info.Mode().IsRegular() {
				return nil
			}
			if !yield(filepath.ToSlash(p)) {
				return errStopWalk
			}
			return nil
		})
	}
}

// OpenFile opens a relative path for reading. It reports false for empty input,
// missing files, directories and paths outside the order directory.
func (h *Handler) OpenFile(rel string) (io.ReadCloser, bool) {
	p, ok := h.resolve(rel)
	if !ok {
		return nil, false
	}
	info, err := h.fs.Stat(p)
	if err != nil || info.IsDir() {
		return nil, false
	}
	f, err := h.fs.Open(p)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (h *Handler) resolve(rel string) (string, bool) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", false
	}
	clean := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	first, rest, _ := strings.Cut(clean, "/")
	if !strings.EqualFold(first, h.id) || rest == "" {
		return "", false
	}
	return filepath.FromSlash(h.id + "/" + rest), true
}
