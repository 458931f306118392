package settings

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := Open(store, discardLogger(), WithDelay(testDelay))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

func TestOpenFirstRunWritesDefaults(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), DefaultFileName))
	svc := openTest(t, store)

	want := Record{Theme: ThemeDark, InvertStrength: 85}
	if got := svc.Record(); got != want {
		t.Errorf("Record() = %+v, want %+v", got, want)
	}

	// Written synchronously, not through the debounced writer.
	got, err := store.Load()
	if err != nil {
		t.Fatalf("settings file not written on first run: %v", err)
	}
	if got != want {
		t.Errorf("persisted = %+v, want %+v", got, want)
	}

	again := openTest(t, store)
	if got := again.Record(); got != want {
		t.Errorf("second Open Record() = %+v, want %+v", got, want)
	}
}

func TestOpenCorrectsInvalidTheme(t *testing.T) {
	store := writeFile(t, "Theme: solarized\nInvertStrength: 40\n")
	svc := openTest(t, store)

	want := Record{Theme: ThemeDark, InvertStrength: 40}
	if got := svc.Record(); got != want {
		t.Errorf("Record() = %+v, want %+v", got, want)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("re-persisted = %+v, want %+v", got, want)
	}
}

func TestOpenClampsStrength(t *testing.T) {
	store := writeFile(t, "Theme: light\nInvertStrength: 250\n")
	svc := openTest(t, store)

	if got := svc.Record().InvertStrength; got != 100 {
		t.Errorf("InvertStrength = %d, want 100", got)
	}
	if got, _ := store.Load(); got.InvertStrength != 100 {
		t.Errorf("re-persisted InvertStrength = %d, want 100", got.InvertStrength)
	}
}

func TestOpenMalformedRestoresDefaults(t *testing.T) {
	store := writeFile(t, "Theme: [oops\n")
	svc := openTest(t, store)

	if got := svc.Record(); got != Defaults() {
		t.Errorf("Record() = %+v, want defaults", got)
	}
	if got, err := store.Load(); err != nil || got != Defaults() {
		t.Errorf("persisted = %+v, %v; want defaults", got, err)
	}
}

func TestOpenValidFileIsNotRewritten(t *testing.T) {
	store := writeFile(t, "# my settings\nTheme: light\nInvertStrength: 10\n")
	openTest(t, store)

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# my settings\nTheme: light\nInvertStrength: 10\n" {
		t.Errorf("valid file was rewritten: %q", data)
	}
}

// failingStore reports a missing file and refuses every write
type failingStore struct {
	saves int
}

func (s *failingStore) Load() (Record, error) { return Record{}, fs.ErrNotExist }
func (s *failingStore) Save(Record) error {
	s.saves++
	return errors.New("permission denied")
}
func (s *failingStore) Path() string { return "/nowhere" }

func TestOpenFailsWhenFileCannotBeCreated(t *testing.T) {
	store := &failingStore{}
	if _, err := Open(store, discardLogger()); err == nil {
		t.Fatal("Open() succeeded, want error")
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1 instant save", store.saves)
	}
}

// readOnlyStore holds a record but refuses every write
type readOnlyStore struct {
	rec   Record
	saves int
}

func (s *readOnlyStore) Load() (Record, error) { return s.rec, nil }
func (s *readOnlyStore) Save(Record) error {
	s.saves++
	return errors.New("read-only file system")
}
func (s *readOnlyStore) Path() string { return "/readonly/settings.yml" }

func TestOpenKeepsCorrectedRecordWhenWriteBackFails(t *testing.T) {
	store := &readOnlyStore{rec: Record{Theme: "purple", InvertStrength: 40}}
	svc := openTest(t, store)

	want := Record{Theme: ThemeDark, InvertStrength: 40}
	if got := svc.Record(); got != want {
		t.Errorf("Record() = %+v, want %+v", got, want)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1 write-back attempt", store.saves)
	}
}

func TestServiceUpdateIsDebouncedAndFlushedOnClose(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), DefaultFileName))
	svc, err := Open(store, discardLogger(), WithDelay(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	for s := 50; s <= 60; s++ {
		if _, err := svc.Update(func(r *Record) { r.InvertStrength = s }); err != nil {
			t.Fatal(err)
		}
	}
	svc.Update(func(r *Record) { r.Theme = ThemeLight })

	if got, _ := store.Load(); got != Defaults() {
		t.Errorf("persisted before Close = %+v, want defaults (save still pending)", got)
	}

	if err := svc.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := Record{Theme: ThemeLight, InvertStrength: 60}
	if got, _ := store.Load(); got != want {
		t.Errorf("persisted after Close = %+v, want %+v", got, want)
	}
}

func TestServiceUpdateClamps(t *testing.T) {
	svc := openTest(t, NewFileStore(filepath.Join(t.TempDir(), DefaultFileName)))
	rec, err := svc.Update(func(r *Record) { r.InvertStrength = -20 })
	if err != nil {
		t.Fatal(err)
	}
	if rec.InvertStrength != 0 {
		t.Errorf("InvertStrength = %d, want 0", rec.InvertStrength)
	}
}

func TestServiceDebouncedSaveLands(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), DefaultFileName))
	svc := openTest(t, store)

	svc.Update(func(r *Record) { r.InvertStrength = 12 })
	waitFor(t, time.Second, func() bool {
		got, err := store.Load()
		return err == nil && got.InvertStrength == 12
	})
}
