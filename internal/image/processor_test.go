package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"a/b/photo.jpg", FormatJPG, false},
		{"photo.jpeg", FormatJPG, false},
		{"photo.gif", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Fatalf("FormatFromPath(%q) error = %v, want ErrUnknownFormat", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"/tmp/cat.png":        "cat",
		"shots/screen.v2.jpg": "screen",
		"plain":               "plain",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClipboardName(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	if got, want := ClipboardName(now), "Image-05-03-2024 140709"; got != want {
		t.Errorf("ClipboardName() = %q, want %q", got, want)
	}
}

func TestAllowedFormats(t *testing.T) {
	p := NewProcessor(90)

	opaque := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range opaque.Pix {
		opaque.Pix[i] = 0xff
	}
	if got := p.AllowedFormats(opaque); len(got) != 2 {
		t.Errorf("opaque image formats = %v, want png and jpg", got)
	}

	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	got := p.AllowedFormats(translucent)
	if len(got) != 1 || got[0] != FormatPNG {
		t.Errorf("translucent image formats = %v, want only png", got)
	}

	// An alpha channel rules out JPEG even when nothing is transparent.
	solid := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range solid.Pix {
		solid.Pix[i] = 0xff
	}
	if got := p.AllowedFormats(solid); len(got) != 1 || got[0] != FormatPNG {
		t.Errorf("opaque nrgba formats = %v, want only png", got)
	}
	if got := p.AllowedFormats(image.NewGray(image.Rect(0, 0, 1, 1))); len(got) != 2 {
		t.Errorf("gray formats = %v, want png and jpg", got)
	}
}

func TestEncodeJPEGRejectsAlpha(t *testing.T) {
	p := NewProcessor(90)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if err := p.Encode(&bytes.Buffer{}, img, FormatJPG); !errors.Is(err, ErrAlphaJPEG) {
		t.Errorf("Encode() error = %v, want ErrAlphaJPEG", err)
	}
}

func TestSaveFileAndDecodeFile(t *testing.T) {
	p := NewProcessor(90)
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	path := filepath.Join(t.TempDir(), "nested", "out.png")
	format, err := p.SaveFile(path, img)
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if format != FormatPNG {
		t.Errorf("format = %q, want png", format)
	}

	got, name, err := p.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if name != "png" {
		t.Errorf("decoded format = %q, want png", name)
	}
	if c := color.NRGBAModel.Convert(got.At(1, 1)).(color.NRGBA); c != (color.NRGBA{R: 10, G: 20, B: 30, A: 40}) {
		t.Errorf("pixel = %+v, want {10 20 30 40}", c)
	}
}

func TestDecodeBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	_, format, err := NewProcessor(90).Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "bmp" {
		t.Errorf("format = %q, want bmp", format)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := NewProcessor(90).Decode(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("Decode() error = %v, want image.ErrFormat", err)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, _, err := NewProcessor(90).DecodeFile(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DecodeFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestClipboardDIB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	dib, err := NewProcessor(90).ClipboardDIB(img)
	if err != nil {
		t.Fatal(err)
	}
	// BITMAPINFOHEADER: size, width, height, planes, bit count.
	if size := binary.LittleEndian.Uint32(dib[0:4]); size != 40 {
		t.Errorf("header size = %d, want 40", size)
	}
	if w := int32(binary.LittleEndian.Uint32(dib[4:8])); w != 3 {
		t.Errorf("width = %d, want 3", w)
	}
	if h := int32(binary.LittleEndian.Uint32(dib[8:12])); h != 2 {
		t.Errorf("height = %d, want 2", h)
	}
	if bits := binary.LittleEndian.Uint16(dib[14:16]); bits != 24 {
		t.Errorf("bit count = %d, want 24 (RGB)", bits)
	}
}

func TestToRGBKeepsStraightColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	got := ToRGB(img).RGBAAt(0, 0)
	if want := (color.RGBA{R: 200, G: 100, B: 50, A: 0xff}); got != want {
		t.Errorf("ToRGB() = %+v, want %+v", got, want)
	}
}

func TestPNGRoundTripOfRGB(t *testing.T) {
	img := ToRGB(image.NewGray(image.Rect(0, 0, 2, 2)))
	var buf bytes.Buffer
	if err := NewProcessor(90).Encode(&buf, img, FormatPNG); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("png.Decode: %v", err)
	}
}
