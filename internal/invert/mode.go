package invert

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// ErrUnsupportedMode is returned for images whose pixel layout the engine
// cannot invert without guessing (CMYK, bare alpha masks, custom types).
var ErrUnsupportedMode = errors.New("unsupported pixel mode")

// Mode describes the pixel layout of an image as seen by the engine.
type Mode int

const (
	ModeUnknown Mode = iota
	// ModeL is 8-bit grayscale.
	ModeL
	// ModeL16 is 16-bit grayscale.
	ModeL16
	// ModeRGB is 8-bit color without an alpha channel.
	ModeRGB
	// ModeRGBA is 8-bit color with a straight (non-premultiplied) alpha channel.
	ModeRGBA
	// ModeRGBA64 is 16-bit color with a straight alpha channel.
	ModeRGBA64
)

func (m Mode) String() string {
	switch m {
	case ModeL:
		return "L"
	case ModeL16:
		return "L16"
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModeRGBA64:
		return "RGBA64"
	default:
		return "Unknown"
	}
}

// HasAlpha reports whether images in this mode carry an alpha channel.
func (m Mode) HasAlpha() bool {
	return m == ModeRGBA || m == ModeRGBA64
}

// ModeOf reports the mode the engine would process img in.
func ModeOf(img image.Image) Mode {
	switch src := img.(type) {
	case *image.Gray:
		return ModeL
	case *image.Gray16:
		return ModeL16
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA:
		if src.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.NRGBA, *image.NYCbCrA, *image.Paletted:
		return ModeRGBA
	case *image.NRGBA64, *image.RGBA64:
		return ModeRGBA64
	default:
		return ModeUnknown
	}
}

// layout is the byte shape of one pixel in a canonical buffer.
type layout struct {
	bpp   int // bytes per pixel
	depth int // bytes per channel, 1 or 2 (big endian)
	alpha int // byte offset of the alpha channel, -1 when absent
}

var layouts = map[Mode]layout{
	ModeL:      {bpp: 1, depth: 1, alpha: -1},
	ModeL16:    {bpp: 2, depth: 2, alpha: -1},
	ModeRGB:    {bpp: 4, depth: 1, alpha: 3},
	ModeRGBA:   {bpp: 4, depth: 1, alpha: 3},
	ModeRGBA64: {bpp: 8, depth: 2, alpha: 6},
}

// buffer is a view over the Pix slice of one of the canonical image types.
type buffer struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

// canonical converts img into the concrete type its mode is processed in.
// Images already in that type are returned as is; the engine never writes to them.
// RGB images are held as opaque *image.RGBA so the alpha byte stays 0xff.
func canonical(img image.Image) (image.Image, Mode, error) {
	mode := ModeOf(img)
	switch mode {
	case ModeL, ModeL16, ModeRGBA64:
		if src, ok := img.(*image.RGBA64); ok {
			dst := image.NewNRGBA64(src.Bounds())
			draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
			return dst, mode, nil
		}
		return img, mode, nil
	case ModeRGB:
		if src, ok := img.(*image.RGBA); ok {
			return src, mode, nil
		}
		dst := image.NewRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst, mode, nil
	case ModeRGBA:
		if src, ok := img.(*image.NRGBA); ok {
			return src, mode, nil
		}
		dst := image.NewNRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst, mode, nil
	}
	return nil, ModeUnknown, ErrUnsupportedMode
}

// allocate returns a blank image of the same canonical type and bounds as img,
// together with buffer views over both.
func allocate(img image.Image) (out image.Image, src, dst buffer) {
	r := img.Bounds()
	switch s := img.(type) {
	case *image.Gray:
		d := image.NewGray(r)
		return d, buffer{s.Pix, s.Stride, r}, buffer{d.Pix, d.Stride, r}
	case *image.Gray16:
		d := image.NewGray16(r)
		return d, buffer{s.Pix, s.Stride, r}, buffer{d.Pix, d.Stride, r}
	case *image.RGBA:
		d := image.NewRGBA(r)
		return d, buffer{s.Pix, s.Stride, r}, buffer{d.Pix, d.Stride, r}
	case *image.NRGBA:
		d := image.NewNRGBA(r)
		return d, buffer{s.Pix, s.Stride, r}, buffer{d.Pix, d.Stride, r}
	case *image.NRGBA64:
		d := image.NewNRGBA64(r)
		return d, buffer{s.Pix, s.Stride, r}, buffer{d.Pix, d.Stride, r}
	}
	panic("invert: allocate called with non-canonical image")
}
