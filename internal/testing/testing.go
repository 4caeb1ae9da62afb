// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/arvkevi/walkup/internal/services"
	"github.com/arvkevi/walkup/internal/shared"
)

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Matches     map[string]*services.TrackMatch // keyed by shared.NormalizeTrackKey(title, artist)
	AuthErr     error
	SearchErr   error
	SearchCalls int
}

func (m *MockCatalog) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockCatalog) SearchTrack(ctx context.Context, title, artist string) (*services.TrackMatch, error) {
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if match, ok := m.Matches[shared.NormalizeTrackKey(title, artist)]; ok {
		return match, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// NewTestDatabase opens an in-memory sqlite database with the walkup schema
// applied, cleaned up with the test.
func NewTestDatabase(t *testing.T) (*sql.DB, shared.Driver) {
	t.Helper()
	db, driver, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// a second pooled connection would get its own empty :memory: database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db, driver); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db, driver
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
