package invert

// pointFunc processes one contiguous row of pixels.
// dst and src hold the same number of pixels in the same layout.
type pointFunc func(dst, src []byte)

// pointFilter applies a per-pixel transform row by row.
type pointFilter struct {
	layout layout
	fn     pointFunc
}

func (f *pointFilter) process(dst, src buffer) {
	rowBytes := src.rect.Dx() * f.layout.bpp
	for y := 0; y < src.rect.Dy(); y++ {
		s := src.pix[y*src.stride : y*src.stride+rowBytes]
		d := dst.pix[y*dst.stride : y*dst.stride+rowBytes]
		f.fn(d, s)
	}
}

// mix returns round(o*(1-s/100) + inv*(s/100)) in integer arithmetic.
// s is in [0, 100] so the result always lies between o and inv.
func mix(o, inv uint32, s int) uint32 {
	return (o*uint32(100-s) + inv*uint32(s) + 50) / 100
}

// newBlendFilter builds the filter that moves every color channel s percent
// of the way towards its inverse and copies the alpha channel through.
func newBlendFilter(l layout, s int) *pointFilter {
	if l.depth == 1 {
		var lut [256]uint8
		for v := range lut {
			lut[v] = uint8(mix(uint32(v), uint32(255-v), s))
		}
		return &pointFilter{layout: l, fn: func(dst, src []byte) {
			for i := 0; i < len(src); i += l.bpp {
				for c := 0; c < l.bpp; c++ {
					if c == l.alpha {
						dst[i+c] = src[i+c]
						continue
					}
					dst[i+c] = lut[src[i+c]]
				}
			}
		}}
	}

	return &pointFilter{layout: l, fn: func(dst, src []byte) {
		for i := 0; i < len(src); i += l.bpp {
			for c := 0; c < l.bpp; c += 2 {
				if c == l.alpha {
					dst[i+c], dst[i+c+1] = src[i+c], src[i+c+1]
					continue
				}
				v := uint32(src[i+c])<<8 | uint32(src[i+c+1])
				r := mix(v, 0xffff-v, s)
				dst[i+c], dst[i+c+1] = uint8(r>>8), uint8(r)
			}
		}
	}}
}
