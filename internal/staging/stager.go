// Package staging persists uploaded PDFs under a per-user directory and
// extracts their embedded images into a sibling images directory.
//
// Layout under the upload root:
//
//	{username}/{filename}.pdf
//	{username}/images/{stem}_{n}.{ext}
package staging

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// PDFContentType is the only accepted upload media type.
const PDFContentType = "application/pdf"

// ImagesDirName is the per-user directory holding extracted images.
const ImagesDirName = "images"

// extractFunc matches api.ExtractImagesFile.
type extractFunc func(inFile, outDir string, selectedPages []string, conf *model.Configuration) error

// Stager owns the upload root directory.
type Stager struct {
	root    string
	extract extractFunc
	log     *zap.Logger
}

// NewStager returns a Stager rooted at root, which is made absolute.
// The directory itself is created lazily on the first Stage call.
func NewStager(root string, log *zap.Logger) (*Stager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	return &Stager{root: abs, extract: api.ExtractImagesFile, log: log}, nil
}

// Root returns the absolute upload root.
func (s *Stager) Root() string { return s.root }

// UserDir returns the upload directory of username.
func (s *Stager) UserDir(username string) string {
	return filepath.Join(s.root, username)
}

// ImagesDir returns the extracted-images directory of username.
func (s *Stager) ImagesDir(username string) string {
	return filepath.Join(s.root, username, ImagesDirName)
}

// Stage streams r to {root}/{username}/{base(filename)} and returns the
// absolute path. Any existing file with the same name is overwritten.
func (s *Stager) Stage(username, filename, contentType string, r io.Reader) (string, error) {
	if username == "" || strings.ContainsAny(username, `/\`) || username == "." || username == ".." {
		return "", fmt.Errorf("%w: a logged-in username is required", models.ErrInvalidInput)
	}
	if !IsPDF(contentType) {
		return "", fmt.Errorf("%w: invalid file type %q, please upload a PDF file", models.ErrInvalidInput, contentType)
	}
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", fmt.Errorf("%w: missing file name", models.ErrInvalidInput)
	}

	if err := os.MkdirAll(s.ImagesDir(username), 0o755); err != nil {
		return "", fmt.Errorf("%w: create user folder: %v", models.ErrStorage, err)
	}

	path := filepath.Join(s.UserDir(username), name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", models.ErrStorage, name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: write %s: %v", models.ErrStorage, name, err)
	}

	s.log.Info("staged document",
		zap.String("user", username),
		zap.String("file", name),
		zap.Int64("bytes", n),
	)
	return path, nil
}

// ExtractImages writes every embedded image of the PDF at pdfPath into
// imagesDir and returns their absolute paths in page order. A PDF without
// images yields an empty slice.
func (s *Stager) ExtractImages(ctx context.Context, pdfPath, imagesDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create images folder: %v", models.ErrStorage, err)
	}

	// pdfcpu names its output after the source; a scratch dir keeps this
	// run's files apart from earlier uploads.
	scratch, err := os.MkdirTemp(filepath.Dir(imagesDir), ".extract-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scratch folder: %v", models.ErrStorage, err)
	}
	defer os.RemoveAll(scratch)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := s.extract(pdfPath, scratch, nil, conf); err != nil {
		return nil, fmt.Errorf("%w: extract images from %s: %v", models.ErrInvalidInput, filepath.Base(pdfPath), err)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, fmt.Errorf("%w: list extracted images: %v", models.ErrStorage, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sortPageOrder(names)

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	images := make([]string, 0, len(names))
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		dest := filepath.Join(imagesDir, fmt.Sprintf("%s_%d%s", stem, len(images)+1, ext))
		if err := os.Rename(filepath.Join(scratch, name), dest); err != nil {
			return nil, fmt.Errorf("%w: move %s: %v", models.ErrStorage, name, err)
		}
		images = append(images, dest)
	}

	s.log.Info("extracted images",
		zap.String("file", filepath.Base(pdfPath)),
		zap.Int("count", len(images)),
	)
	return images, nil
}

// sortPageOrder orders pdfcpu output names ({stem}_{page}_{id}.{ext}) by
// page, then by the numeric part of the image id. Names that do not follow
// the pattern sort after the rest, by name.
func sortPageOrder(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, ii, oki := pageAndID(names[i])
		pj, ij, okj := pageAndID(names[j])
		switch {
		case oki != okj:
			return oki
		case !oki:
			return names[i] < names[j]
		case pi != pj:
			return pi < pj
		case ii != ij:
			return ii < ij
		}
		return names[i] < names[j]
	})
}

func pageAndID(name string) (page, id int, ok bool) {
	parts := strings.Split(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	if len(parts) < 3 {
		return 0, 0, false
	}
	page, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, false
	}
	id, err = strconv.Atoi(strings.TrimLeftFunc(parts[len(parts)-1], func(r rune) bool {
		return r < '0' || r > '9'
	}))
	if err != nil {
		return 0, 0, false
	}
	return page, id, true
}

// Relative converts an absolute path under the root into a slash-separated
// root-relative path, the form stored in sessions.
func (s *Stager) Relative(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the upload root", models.ErrInvalidInput, path)
	}
	return filepath.ToSlash(rel), nil
}

// Resolve maps a root-relative path back to an absolute path of an existing
// regular file. Paths escaping the root and missing files are ErrNotFound.
func (s *Stager) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty path", models.ErrNotFound)
	}
	path := filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+rel)))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, rel)
	}
	return path, nil
}

// IsPDF reports whether contentType names application/pdf,
// ignoring parameters and case.
func IsPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == PDFContentType
}
