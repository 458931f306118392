// Package invert computes blended color inversions of raster images.
//
// The engine is pure: it never mutates its input and always returns a newly
// allocated image. Alpha channels pass through untouched, so transparent
// regions stay transparent at every strength.
package invert

import "image"

const (
	// MinStrength leaves the image unchanged.
	MinStrength = 0
	// MaxStrength produces the full inversion.
	MaxStrength = 100
)

// ClampStrength limits s to [MinStrength, MaxStrength].
func ClampStrength(s int) int {
	return min(max(s, MinStrength), MaxStrength)
}

// BlendInvert blends img towards its color inversion. strength is the blend
// percentage: 0 returns the original values, 100 the fully inverted image.
// Values outside [0, 100] are clamped.
//
// The returned image is an *image.Gray, *image.Gray16, *image.RGBA (opaque,
// for RGB sources), *image.NRGBA or *image.NRGBA64 depending on ModeOf(img).
func BlendInvert(img image.Image, strength int) (image.Image, error) {
	src, mode, err := canonical(img)
	if err != nil {
		return nil, err
	}

	out, sbuf, dbuf := allocate(src)
	newBlendFilter(layouts[mode], ClampStrength(strength)).process(dbuf, sbuf)
	return out, nil
}

// Invert returns the full color inversion of img.
func Invert(img image.Image) (image.Image, error) {
	return BlendInvert(img, MaxStrength)
}
