package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shoplight/shoplight-backend/pkg/config"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
)

type memoryStore struct {
	values map[string]string
	locks  map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, locks: map[string]bool{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.locks, key)
	}
	return nil
}

func (m *memoryStore) FeedStateKey(userID string) string { return "sl:feed:" + userID }
func (m *memoryStore) FeedLockKey(userID string) string  { return "sl:feed:lock:" + userID }

type stubSearcher struct {
	calls   int
	queries []string
	pages   []int
	photos  []pexels.Photo
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string, page, perPage int) (*pexels.SearchResult, error) {
	s.calls++
	s.queries = append(s.queries, query)
	s.pages = append(s.pages, page)
	if s.err != nil {
		return nil, s.err
	}
	return &pexels.SearchResult{Page: page, PerPage: perPage, Photos: s.photos}, nil
}

func makePhotos(n int) []pexels.Photo {
	photos := make([]pexels.Photo, 0, n)
	for i := 0; i < n; i++ {
		photos = append(photos, pexels.Photo{
			ID:  int64(1000 + i),
			Alt: "Leather shoes on display",
			Src: pexels.PhotoSource{Medium: "https://images.example/medium.jpg"},
		})
	}
	return photos
}

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		PageSize:     4,
		SessionTTL:   time.Hour,
		LockTTL:      15 * time.Second,
		PriceFloor:   300,
		PriceCeiling: 2300,
		DefaultQuery: "shopping",
	}
}

func newTestService(t *testing.T, store *memoryStore, searcher *stubSearcher) Service {
	t.Helper()
	svc, err := NewService(store, searcher, testFeedConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoadMoreAccumulatesPages(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(4)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	dto, err := svc.LoadMore(context.Background(), userID, "shoes")
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if dto.Status != StatusLoaded || !dto.HasMore {
		t.Fatalf("expected loaded state with more pages, got %+v", dto)
	}
	if len(dto.Products) != 4 {
		t.Fatalf("expected 4 products, got %d", len(dto.Products))
	}
	if dto.Page != 2 {
		t.Fatalf("expected next page 2, got %d", dto.Page)
	}

	dto, err = svc.LoadMore(context.Background(), userID, "shoes")
	if err != nil {
		t.Fatalf("second LoadMore: %v", err)
	}
	if len(dto.Products) != 8 {
		t.Fatalf("expected accumulated 8 products, got %d", len(dto.Products))
	}
	if searcher.pages[0] != 1 || searcher.pages[1] != 2 {
		t.Fatalf("expected sequential upstream pages, got %v", searcher.pages)
	}

	if len(dto.Categories) != 1 || dto.Categories[0] != "fashion" {
		t.Fatalf("expected distinct categories [fashion], got %v", dto.Categories)
	}

	for _, product := range dto.Products {
		units := product.PriceCents / 100
		if product.PriceCents%100 != 0 || units < 300 || units >= 2300 {
			t.Fatalf("price %d outside synthesized range", product.PriceCents)
		}
		if product.Category != "fashion" {
			t.Fatalf("expected fashion category for shoe photo, got %q", product.Category)
		}
	}
}

func TestLoadMoreQueryChangeResetsSession(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(4)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	if _, err := svc.LoadMore(context.Background(), userID, "shoes"); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	dto, err := svc.LoadMore(context.Background(), userID, "lamps")
	if err != nil {
		t.Fatalf("LoadMore after query change: %v", err)
	}
	if dto.Query != "lamps" {
		t.Fatalf("expected query lamps, got %q", dto.Query)
	}
	if len(dto.Products) != 4 {
		t.Fatalf("expected reset session with one page, got %d products", len(dto.Products))
	}
	if searcher.pages[1] != 1 {
		t.Fatalf("expected reset to page 1, got %d", searcher.pages[1])
	}
}

func TestLoadMoreEmptyQueryContinuesSession(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(4)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	if _, err := svc.LoadMore(context.Background(), userID, "shoes"); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	dto, err := svc.LoadMore(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("LoadMore with empty query: %v", err)
	}
	if dto.Query != "shoes" {
		t.Fatalf("expected active query shoes, got %q", dto.Query)
	}
	if len(dto.Products) != 8 {
		t.Fatalf("expected accumulated products, got %d", len(dto.Products))
	}
	if searcher.queries[1] != "shoes" || searcher.pages[1] != 2 {
		t.Fatalf("expected fetch of shoes page 2, got %q page %d", searcher.queries[1], searcher.pages[1])
	}
}

func TestLoadMoreEmptyQueryStartsDefaultSession(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(4)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	dto, err := svc.LoadMore(context.Background(), userID, "  ")
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if dto.Query != "shopping" {
		t.Fatalf("expected default query, got %q", dto.Query)
	}
	if searcher.queries[0] != "shopping" {
		t.Fatalf("expected default query fetched, got %q", searcher.queries[0])
	}
}

func TestLoadMoreShortPageExhaustsSession(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(2)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	dto, err := svc.LoadMore(context.Background(), userID, "shoes")
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if dto.Status != StatusExhausted || dto.HasMore {
		t.Fatalf("expected exhausted session, got %+v", dto)
	}

	dto, err = svc.LoadMore(context.Background(), userID, "shoes")
	if err != nil {
		t.Fatalf("LoadMore on exhausted session: %v", err)
	}
	if searcher.calls != 1 {
		t.Fatalf("expected no refetch after exhaustion, got %d calls", searcher.calls)
	}
	if len(dto.Products) != 2 {
		t.Fatalf("expected existing products returned, got %d", len(dto.Products))
	}
}

func TestLoadMoreFetchFailureClosesSession(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{err: errors.New("upstream down")}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	dto, err := svc.LoadMore(context.Background(), userID, "shoes")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if dto.Status != StatusExhausted {
		t.Fatalf("expected session closed on failure, got %q", dto.Status)
	}

	searcher.err = nil
	searcher.photos = makePhotos(4)
	if _, err := svc.LoadMore(context.Background(), userID, "shoes"); err != nil {
		t.Fatalf("LoadMore after failure: %v", err)
	}
	if searcher.calls != 1 {
		t.Fatalf("expected exhaustion to stick across calls, got %d fetches", searcher.calls)
	}
}

func TestLoadMoreLockHeldReturnsCurrentState(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: makePhotos(4)}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	store.locks[store.FeedLockKey(userID.String())] = true

	dto, err := svc.LoadMore(context.Background(), userID, "shoes")
	if err != nil {
		t.Fatalf("LoadMore with lock held: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatalf("expected no fetch while lock held, got %d", searcher.calls)
	}
	if dto.Status != StatusLoading {
		t.Fatalf("expected loading status while lock held, got %q", dto.Status)
	}
	if len(dto.Products) != 0 || dto.Page != 1 {
		t.Fatalf("expected untouched session, got %+v", dto)
	}
}

func TestViewFilters(t *testing.T) {
	store := newMemoryStore()
	searcher := &stubSearcher{photos: []pexels.Photo{
		{ID: 1, Alt: "Leather shoes", Src: pexels.PhotoSource{Medium: "https://images.example/1.jpg"}},
		{ID: 2, Alt: "Gaming laptop", Src: pexels.PhotoSource{Medium: "https://images.example/2.jpg"}},
	}}
	svc := newTestService(t, store, searcher)
	userID := uuid.New()

	if _, err := svc.LoadMore(context.Background(), userID, "shopping"); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}

	dto, err := svc.View(context.Background(), userID, "electronics", "")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(dto.Products) != 1 || dto.Products[0].Category != "electronics" {
		t.Fatalf("expected single electronics product, got %+v", dto.Products)
	}

	dto, err = svc.View(context.Background(), userID, "", "")
	if err != nil {
		t.Fatalf("View unfiltered: %v", err)
	}
	if len(dto.Products) != 2 {
		t.Fatalf("expected full session, got %d products", len(dto.Products))
	}
	if searcher.calls != 1 {
		t.Fatalf("View must not fetch, got %d calls", searcher.calls)
	}
}

func TestViewEmptySession(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, &stubSearcher{})

	dto, err := svc.View(context.Background(), uuid.New(), "", "")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if dto.Status != StatusIdle || len(dto.Products) != 0 {
		t.Fatalf("expected idle empty session, got %+v", dto)
	}
}
