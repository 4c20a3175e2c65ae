// Package imagefile stores uploaded profile images on local disk.
//
// An upload is checked against the size limit and the extension/MIME
// allow-list before anything is written, then written under a generated
// name, decoded to confirm it is a real image, and removed again if decoding
// fails. A scaled thumbnail is written next to it on a best-effort basis.
package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

var (
	// ErrTooLarge is returned when the upload exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
	// ErrTypeNotSupported is returned when the extension or MIME type is not allowed.
	ErrTypeNotSupported = errors.New("image type not supported")
	// ErrUndecodable is returned when the stored bytes are not a decodable image.
	ErrUndecodable = errors.New("image could not be decoded")
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

var (
	allowedExt = map[string]string{
		".jpg":  mimeJPEG,
		".jpeg": mimeJPEG,
		".png":  mimePNG,
	}
	allowedMIME = map[string]bool{
		mimeJPEG:    true,
		"image/jpg": true,
		mimePNG:     true,
	}
	encoders = map[string]func(io.Writer, image.Image) error{
		"jpeg": func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 85}) },
		"png":  png.Encode,
	}
)

// Stored describes a file written by Save.
type Stored struct {
	Name   string // base file name, e.g. IMAGE-1700000000000.png
	Path   string // full path on disk
	Format string // decoded format: jpeg | png
	Width  int
	Height int
}

// Store writes images under Dir.
type Store struct {
	dir        string
	maxBytes   int64
	thumbWidth int
	now        func() time.Time
	log        *zap.Logger
}

// New returns a Store. thumbWidth <= 0 disables thumbnails.
func New(dir string, maxBytes int64, thumbWidth int, logger *zap.Logger) *Store {
	return &Store{
		dir:        dir,
		maxBytes:   maxBytes,
		thumbWidth: thumbWidth,
		now:        time.Now,
		log:        logger,
	}
}

// Dir is the destination directory.
func (s *Store) Dir() string { return s.dir }

// MaxBytes is the per-file size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// CheckConstraints validates an upload before it is stored. The extension is
// compared case-insensitively; the content type may carry parameters.
func (s *Store) CheckConstraints(filename, contentType string, size int64) error {
	if size > s.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, s.maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExt[ext]; !ok {
		return fmt.Errorf("%w: extension %q", ErrTypeNotSupported, ext)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !allowedMIME[strings.ToLower(mt)] {
		return fmt.Errorf("%w: content type %q", ErrTypeNotSupported, contentType)
	}
	return nil
}

// Save writes src under a generated IMAGE-<epochMillis><ext> name and decodes
// it. When decoding fails the file is removed and ErrUndecodable returned.
func (s *Store) Save(src io.Reader, originalName string) (Stored, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Stored{}, fmt.Errorf("create image dir: %w", err)
	}

	ext := filepath.Ext(originalName)
	f, name, err := s.create(ext)
	if err != nil {
		return Stored{}, err
	}
	path := filepath.Join(s.dir, name)

	n, err := io.Copy(f, io.LimitReader(src, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		s.discard(path)
		return Stored{}, err
	}

	img, format, err := decodeFile(path)
	if err != nil {
		s.discard(path)
		return Stored{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	st := Stored{
		Name:   name,
		Path:   path,
		Format: format,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	if s.thumbWidth > 0 {
		if err := s.writeThumbnail(img, format, ThumbName(path)); err != nil {
			s.log.Warn("profile thumbnail failed", zap.String("file", name), zap.Error(err))
		}
	}
	return st, nil
}

// Remove deletes a stored image and its thumbnail. Missing files are not an error.
func (s *Store) Remove(name string) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if terr := os.Remove(ThumbName(path)); terr != nil && !errors.Is(terr, os.ErrNotExist) {
		return terr
	}
	return nil
}

// ListOlderThan returns the names of stored images (thumbnails excluded)
// last modified before cutoff. A missing directory yields no names.
func (s *Store) ListOlderThan(cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "IMAGE-") || isThumb(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, name)
		}
	}
	return names, nil
}

func isThumb(name string) bool {
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), "_thumb")
}

// ThumbName returns the thumbnail path for an image path: a.png -> a_thumb.png.
func ThumbName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_thumb" + ext
}

// create opens a new file exclusively, bumping the timestamp on collision.
func (s *Store) create(ext string) (*os.File, string, error) {
	ms := s.now().UnixMilli()
	for i := 0; i < 10; i++ {
		name := "IMAGE-" + strconv.FormatInt(ms+int64(i), 10) + ext
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create image file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create image file: too many name collisions")
}

func (s *Store) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove rejected image failed", zap.String("path", path), zap.Error(err))
	}
}

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// writeThumbnail scales img to the configured width, keeping the aspect
// ratio. Images narrower than the width are re-encoded at their own size.
func (s *Store) writeThumbnail(img image.Image, format, path string) error {
	enc, ok := encoders[format]
	if !ok {
		return fmt.Errorf("no encoder for %q", format)
	}

	b := img.Bounds()
	width := s.thumbWidth
	if b.Dx() < width {
		width = b.Dx()
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f, dst); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
