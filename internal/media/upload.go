package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize caps a single uploaded image.
const MaxImageSize = 10 << 20

// ImagePrefix is the directory post images are stored under.
const ImagePrefix = "posts"

var (
	ErrNotImage = errors.New("upload is not an image")
	ErrTooLarge = errors.New("image exceeds the upload limit")
)

// rasterTypes are the accepted upload formats. Vector formats such as SVG
// can carry script and are refused.
var rasterTypes = []string{"image/gif", "image/png", "image/jpeg", "image/webp", "image/bmp"}

// SaveImage checks that fh holds an image and stores it under a fresh name,
// which it returns.
func SaveImage(ctx context.Context, store Storage, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageSize {
		return "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !isRaster(mt) {
		return "", ErrNotImage
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := path.Join(ImagePrefix, uuid.NewString()+mt.Extension())
	if err := store.Save(ctx, name, f); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return name, nil
}

func isRaster(mt *mimetype.MIME) bool {
	for _, t := range rasterTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// ContentType guesses the content type of a stored file from its name.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
