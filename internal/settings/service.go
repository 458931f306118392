package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
)

// Service owns the settings state and keeps it persisted.
// Instant saves write synchronously; everything else goes through the
// debounced Writer.
type Service struct {
	store  Store
	state  *State
	writer *Writer
	logger *slog.Logger

	// serializes instant saves with the background writer
	saveMu sync.Mutex
}

// NewService creates a service around state and starts its writer.
// opts are passed on to the Writer.
func NewService(store Store, state *State, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		state:  state,
		logger: logger,
	}
	s.writer = NewWriter(s.persist, append([]Option{WithLogger(logger)}, opts...)...)
	return s
}

// errWriteBack marks a record that loaded fine but could not be written back
var errWriteBack = errors.New("persist corrected settings")

// Open loads the settings at startup.
//
// A missing file is created with the defaults; failing to create it is the
// only error returned. A malformed or unreadable file is replaced by the
// defaults, and invalid values are corrected and written back. A failed
// write-back keeps the corrected values.
func Open(store Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	s := NewService(store, NewState(Defaults()), logger, opts...)

	_, err := s.Load()
	switch {
	case err == nil:
	case errors.Is(err, errWriteBack):
		// The corrected record is already in the state; the next save retries.
		logger.Warn("could not write back corrected settings", "path", store.Path(), "error", err)
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("settings file not found, writing defaults", "path", store.Path())
		if err := s.RequestSave(true); err != nil {
			s.writer.Close(context.Background())
			return nil, fmt.Errorf("create settings file: %w", err)
		}
	default:
		logger.Warn("could not load settings, restoring defaults", "path", store.Path(), "error", err)
		s.state.Set(Defaults())
		if err := s.RequestSave(true); err != nil {
			logger.Error("failed to restore default settings", "path", store.Path(), "error", err)
		}
	}

	return s, nil
}

// Load reads the persisted record into the state. Invalid values are
// corrected and immediately written back.
func (s *Service) Load() (Record, error) {
	rec, err := s.store.Load()
	if err != nil {
		return Record{}, err
	}

	if rec.Normalize() {
		s.logger.Warn("settings file held invalid values, correcting",
			"theme", rec.Theme,
			"invert_strength", rec.InvertStrength,
		)
		s.state.Set(rec)
		if err := s.RequestSave(true); err != nil {
			return rec, fmt.Errorf("%w: %w", errWriteBack, err)
		}
		return rec, nil
	}

	s.state.Set(rec)
	return rec, nil
}

// RequestSave persists the current record. instant writes synchronously and
// returns the write error; otherwise the save is debounced.
func (s *Service) RequestSave(instant bool) error {
	if instant {
		return s.persist()
	}
	return s.writer.Request()
}

// Record returns the current settings
func (s *Service) Record() Record {
	return s.state.Get()
}

// Update changes the settings in memory and schedules a debounced save
func (s *Service) Update(fn func(*Record)) (Record, error) {
	rec := s.state.Update(fn)
	return rec, s.RequestSave(false)
}

// State returns the shared settings state
func (s *Service) State() *State {
	return s.state
}

// Path returns where the settings are stored
func (s *Service) Path() string {
	return s.store.Path()
}

// Close flushes any pending save and stops the writer
func (s *Service) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}

func (s *Service) persist() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.store.Save(s.state.Get()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
