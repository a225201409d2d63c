package catalog

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImageStore saves uploaded product images to a local directory and hands
// back the public path they are served under.
type ImageStore struct{ dir string }

func NewImageStore(dir string) *ImageStore { return &ImageStore{dir: dir} }

// Save writes the uploaded file under a timestamp-unique name derived from
// the original filename and returns its public "/images/..." path.
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(header.Filename)
	base := strings.TrimSuffix(filepath.Base(header.Filename), ext)
	base = strings.ToLower(strings.Join(strings.Fields(base), "-"))
	name := fmt.Sprintf("%s-%d%s", base, time.Now().UnixMilli(), ext)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return "/images/" + name, nil
}
