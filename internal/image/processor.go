package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"image-inverter/internal/invert"
)

// Format is an output encoding
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// bmpFileHeaderSize is the BITMAPFILEHEADER that precedes the DIB in a .bmp file
const bmpFileHeaderSize = 14

var (
	// ErrUnknownFormat is returned for output paths with an extension we can't encode
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrAlphaJPEG is returned when saving an image with transparency as JPEG
	ErrAlphaJPEG = errors.New("jpeg cannot store an alpha channel")
)

// Processor handles image decoding and encoding
type Processor struct {
	jpegQuality int
}

// NewProcessor creates a new image processor
func NewProcessor(jpegQuality int) *Processor {
	return &Processor{
		jpegQuality: jpegQuality,
	}
}

// Decode reads any registered format (png, jpeg, gif, bmp, tiff, webp)
func (p *Processor) Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DecodeFile opens and decodes the image at path
func (p *Processor) DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return p.Decode(f)
}

// AllowedFormats lists the formats img can be saved in.
// JPEG is only offered when the image has no transparency.
func (p *Processor) AllowedFormats(img image.Image) []Format {
	if hasAlpha(img) {
		return []Format{FormatPNG}
	}
	return []Format{FormatPNG, FormatJPG}
}

// Encode writes img to w in the given format
func (p *Processor) Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case FormatJPG:
		if hasAlpha(img) {
			return ErrAlphaJPEG
		}
		opts := &jpeg.Options{Quality: p.jpegQuality}
		if err := jpeg.Encode(w, img, opts); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// SaveFile encodes img into path, picking the format from the extension
func (p *Processor) SaveFile(path string, img image.Image) (Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, img, format); err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return format, nil
}

// ClipboardDIB returns the CF_DIB clipboard payload for img: the image
// flattened to RGB, BMP encoded, without the 14-byte file header.
func (p *Processor) ClipboardDIB(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, ToRGB(img)); err != nil {
		return nil, fmt.Errorf("encode bmp: %w", err)
	}
	return buf.Bytes()[bmpFileHeaderSize:], nil
}

// ToRGB drops the alpha channel of img, keeping the straight color values
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)

	// Straight pixels are copied as is: going through color.Color would
	// premultiply and lose the color of fully transparent pixels.
	src, ok := img.(*image.NRGBA)
	if !ok {
		src = image.NewNRGBA(b)
		draw.Draw(src, b, img, b.Min, draw.Src)
	}
	row := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+row], src.Pix[y*src.Stride:])
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// FormatFromPath maps a file extension onto an output format
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// BaseName returns the file name of path up to its first dot,
// used as the default name when the result is saved.
func BaseName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// ClipboardName is the default name for images pasted from the clipboard
func ClipboardName(now time.Time) string {
	return "Image-" + now.Format("02-01-2006 150405")
}

// hasAlpha goes by the pixel mode, not by the pixel values: an image with an
// alpha channel is never offered JPEG even when every pixel is opaque.
func hasAlpha(img image.Image) bool {
	return invert.ModeOf(img).HasAlpha()
}
