// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytspot/internal/models"
)

// MockSource is a test double for [services.Source]
type MockSource struct {
	FavoriteItems []models.SourceTrack
	Playlists     []models.CollectionDescriptor
	Items         map[string][]models.SourceTrack

	FavoritesErr   error
	CollectionsErr error
	ItemsErr       map[string]error

	mu    sync.Mutex
	Calls []string // method[:id] in call order
}

func (m *MockSource) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockSource) Favorites(ctx context.Context) ([]models.SourceTrack, error) {
	m.record("favorites")
	if m.FavoritesErr != nil {
		return nil, m.FavoritesErr
	}
	return m.FavoriteItems, nil
}

func (m *MockSource) Collections(ctx context.Context) ([]models.CollectionDescriptor, error) {
	m.record("collections")
	if m.CollectionsErr != nil {
		return nil, m.CollectionsErr
	}
	return m.Playlists, nil
}

func (m *MockSource) CollectionItems(ctx context.Context, id string) ([]models.SourceTrack, error) {
	m.record("items:" + id)
	if err := m.ItemsErr[id]; err != nil {
		return nil, err
	}
	return m.Items[id], nil
}

// AppendCall is one [MockDestination.AddTracks] request
type AppendCall struct {
	CollectionID string
	TrackIDs     []string
}

// MockDestination is a test double for [services.Destination]
//
// Search results are keyed by query. Created collections get sequential ids (pl1, pl2, ...).
type MockDestination struct {
	Results   map[string][]models.Match
	SearchErr map[string]error
	CreateErr error
	AddErrs   map[int]error // keyed by 1-based append call number

	mu       sync.Mutex
	Created  []models.Collection
	Appended []AppendCall
	Queries  []string
	Calls    []string // create:name, add:id in call order
}

func (m *MockDestination) SearchTracks(ctx context.Context, query string, limit int) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if err := m.SearchErr[query]; err != nil {
		return nil, err
	}
	results := m.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockDestination) CreateCollection(ctx context.Context, name, description string) (*models.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "create:"+name)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	c := models.Collection{
		ID:          fmt.Sprintf("pl%d", len(m.Created)+1),
		Name:        name,
		Description: description,
		Public:      true,
	}
	m.Created = append(m.Created, c)
	return &c, nil
}

func (m *MockDestination) AddTracks(ctx context.Context, collectionID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "add:"+collectionID)
	m.Appended = append(m.Appended, AppendCall{
		CollectionID: collectionID,
		TrackIDs:     append([]string(nil), trackIDs...),
	})
	return m.AddErrs[len(m.Appended)]
}

// AppendedIDs flattens every successful or failed append request in order.
func (m *MockDestination) AppendedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, call := range m.Appended {
		ids = append(ids, call.TrackIDs...)
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
