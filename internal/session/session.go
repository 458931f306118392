package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	apperrors "image-inverter/internal/errors"
	"image-inverter/internal/history"
	imgproc "image-inverter/internal/image"
	"image-inverter/internal/invert"
	"image-inverter/internal/settings"
)

// PlaceholderStrength is the inversion applied to the placeholder in the dark theme
const PlaceholderStrength = 85

// Session holds the image being worked on and applies the user's settings to it.
// It is what a window would drive: load, adjust, copy or save.
type Session struct {
	settings  *settings.Service
	processor *imgproc.Processor
	history   history.Store
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	original image.Image
	inverted image.Image
	name     string
}

// New creates a session. hist may be nil to disable the export journal.
func New(svc *settings.Service, processor *imgproc.Processor, hist history.Store, logger *slog.Logger) *Session {
	return &Session{
		settings:  svc,
		processor: processor,
		history:   hist,
		logger:    logger,
		now:       time.Now,
	}
}

// LoadFile opens a dropped or chosen file. The result is named after the
// file, up to the first dot.
func (s *Session) LoadFile(path string) error {
	img, format, err := s.processor.DecodeFile(path)
	if err != nil {
		s.logger.Warn("failed to load dropped file", "path", path, "error", err)
		return apperrors.WithCause(apperrors.ErrFileDrop, err)
	}
	s.logger.Debug("loaded image", "path", path, "format", format, "mode", invert.ModeOf(img))
	return s.load(img, imgproc.BaseName(path))
}

// LoadImage takes a bitmap pasted from the clipboard
func (s *Session) LoadImage(img image.Image) error {
	if img == nil {
		return apperrors.ErrClipboardRead
	}
	return s.load(img, imgproc.ClipboardName(s.now()))
}

// LoadClipboardFiles takes a list of files copied to the clipboard and loads
// the first one that decodes.
func (s *Session) LoadClipboardFiles(paths []string) error {
	var errs []error
	for _, path := range paths {
		img, _, err := s.processor.DecodeFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return s.load(img, imgproc.ClipboardName(s.now()))
	}
	if len(errs) == 0 {
		return apperrors.ErrClipboardRead
	}
	return apperrors.WithCause(apperrors.ErrClipboardRead, errors.Join(errs...))
}

func (s *Session) load(img image.Image, name string) error {
	inverted, err := s.blend(img, s.settings.Record().InvertStrength)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = img
	s.inverted = inverted
	s.name = name
	return nil
}

// SetStrength changes the inversion strength, clamped to [0, 100], persists
// it with a debounced save and re-applies it to the loaded image.
func (s *Session) SetStrength(strength int) (int, error) {
	rec, err := s.settings.Update(func(r *settings.Record) {
		r.InvertStrength = strength
	})
	if err != nil {
		return rec.InvertStrength, fmt.Errorf("save strength: %w", err)
	}
	return rec.InvertStrength, s.apply(rec.InvertStrength)
}

// Nudge moves the strength by delta, as the arrow keys do
func (s *Session) Nudge(delta int) (int, error) {
	return s.SetStrength(s.Strength() + delta)
}

// Strength returns the current inversion strength
func (s *Session) Strength() int {
	return s.settings.Record().InvertStrength
}

// SetTheme switches the color scheme. Selecting the active theme is a no-op.
func (s *Session) SetTheme(theme settings.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("unknown theme %q", theme)
	}
	if s.settings.Record().Theme == theme {
		return nil
	}
	if _, err := s.settings.Update(func(r *settings.Record) { r.Theme = theme }); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Theme returns the current color scheme
func (s *Session) Theme() settings.Theme {
	return s.settings.Record().Theme
}

func (s *Session) apply(strength int) error {
	s.mu.Lock()
	original := s.original
	s.mu.Unlock()
	if original == nil {
		return nil
	}

	inverted, err := s.blend(original, strength)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A different image may have been loaded meanwhile.
	if s.original == original {
		s.inverted = inverted
	}
	return nil
}

func (s *Session) blend(img image.Image, strength int) (image.Image, error) {
	out, err := invert.BlendInvert(img, strength)
	if errors.Is(err, invert.ErrUnsupportedMode) {
		return nil, apperrors.WithCause(apperrors.ErrUnsupportedImage, err)
	}
	return out, err
}

// Name returns the default file name for the current image
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Original returns the loaded image, or nil
func (s *Session) Original() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original
}

// Result returns the inverted image, falling back to the original
func (s *Session) Result() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inverted != nil {
		return s.inverted
	}
	return s.original
}

// SaveFormats lists the formats the current result can be saved in
func (s *Session) SaveFormats() []imgproc.Format {
	result := s.Result()
	if result == nil {
		return nil
	}
	return s.processor.AllowedFormats(result)
}

// SaveTo writes the result to path; the extension picks the format
func (s *Session) SaveTo(path string) error {
	result := s.Result()
	if result == nil {
		return apperrors.ErrNoImage
	}

	format, err := s.processor.SaveFile(path, result)
	if err != nil {
		s.logger.Error("failed to save image", "path", path, "error", err)
		return apperrors.WithCause(apperrors.ErrSaveFailed, err)
	}

	s.logger.Info("image saved", "path", path, "format", format, "strength", s.Strength())
	s.record(history.TargetFile, path, string(format), result)
	return nil
}

// ClipboardDIB returns the result as a CF_DIB clipboard payload
func (s *Session) ClipboardDIB() ([]byte, error) {
	result := s.Result()
	if result == nil {
		return nil, apperrors.ErrClipboardWrite
	}

	dib, err := s.processor.ClipboardDIB(result)
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrClipboardWrite, err)
	}

	s.record(history.TargetClipboard, "", "bmp", result)
	return dib, nil
}

func (s *Session) record(target history.Target, path, format string, img image.Image) {
	if s.history == nil {
		return
	}
	b := img.Bounds()
	err := s.history.Add(&history.Export{
		SourceName: s.Name(),
		Target:     target,
		Path:       path,
		Format:     format,
		Strength:   s.Strength(),
		Width:      b.Dx(),
		Height:     b.Dy(),
	})
	if err != nil {
		s.logger.Warn("failed to record export", "error", err)
	}
}

// Placeholder returns img as shown while no image is loaded: inverted at
// PlaceholderStrength in the dark theme, unchanged in the light one.
func Placeholder(img image.Image, theme settings.Theme) (image.Image, error) {
	if theme != settings.ThemeDark {
		return img, nil
	}
	return invert.BlendInvert(img, PlaceholderStrength)
}
