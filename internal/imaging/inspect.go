// Package imaging validates uploaded crop photos before they are sent to the
// diagnosis provider or inlined into a prompt.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

// MaxImageBytes bounds an upload.
const MaxImageBytes = 10 << 20

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Info describes an accepted image.
type Info struct {
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Inspect sniffs the content type and decodes the image header.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return Info{}, ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	if !supported[mime.String()] {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return Info{MIMEType: mime.String(), Width: cfg.Width, Height: cfg.Height}, nil
}

// NewImage inspects data and wraps it with its detected MIME type.
func NewImage(data []byte) (*models.Image, Info, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, Info{}, err
	}
	return &models.Image{Data: data, MIMEType: info.MIMEType}, info, nil
}
