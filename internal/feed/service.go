package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shoplight/shoplight-backend/internal/catalog"
	"github.com/shoplight/shoplight-backend/pkg/config"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
)

type sessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	FeedStateKey(userID string) string
	FeedLockKey(userID string) string
}

type photoSearcher interface {
	Search(ctx context.Context, query string, page, perPage int) (*pexels.SearchResult, error)
}

// DTO is the feed view returned to clients.
type DTO struct {
	Query      string            `json:"query"`
	Page       int               `json:"page"`
	Status     string            `json:"status"`
	HasMore    bool              `json:"has_more"`
	Categories []string          `json:"categories"`
	Products   []catalog.Product `json:"products"`
}

// Service owns the per-user product feed session.
type Service interface {
	LoadMore(ctx context.Context, userID uuid.UUID, query string) (DTO, error)
	View(ctx context.Context, userID uuid.UUID, category, priceBucket string) (DTO, error)
}

type service struct {
	store    sessionStore
	searcher photoSearcher
	cfg      config.FeedConfig
}

// NewService builds the feed service.
func NewService(store sessionStore, searcher photoSearcher, cfg config.FeedConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("feed session store required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("photo searcher required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("feed page size must be positive")
	}
	if cfg.PriceCeiling <= cfg.PriceFloor {
		return nil, fmt.Errorf("feed price ceiling must exceed floor")
	}
	return &service{store: store, searcher: searcher, cfg: cfg}, nil
}

// LoadMore fetches the next page into the session. A query change resets
// the session first; an exhausted session is returned as-is without a
// fetch; concurrent loads for the same user are serialized by a lock.
func (s *service) LoadMore(ctx context.Context, userID uuid.UUID, query string) (DTO, error) {
	if userID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	query = strings.TrimSpace(query)

	state, err := s.loadState(ctx, userID)
	if err != nil {
		return DTO{}, err
	}

	// An empty query continues the active session; only a fresh session
	// falls back to the default query.
	if query == "" {
		query = state.Query
		if query == "" {
			query = s.cfg.DefaultQuery
		}
	}

	if state.Query != query {
		state = newState(query)
	}
	if state.Status == StatusExhausted {
		return toDTO(state), nil
	}

	lockKey := s.store.FeedLockKey(userID.String())
	acquired, err := s.store.SetNX(ctx, lockKey, "1", s.cfg.LockTTL)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire feed lock")
	}
	if !acquired {
		// Another load is in flight; hand back what we have.
		dto := toDTO(state)
		dto.Status = StatusLoading
		return dto, nil
	}
	defer func() { _ = s.store.Del(ctx, lockKey) }()

	result, err := s.searcher.Search(ctx, state.Query, state.Page, s.cfg.PageSize)
	if err != nil {
		// Upstream failure closes the session rather than retrying forever.
		state.Status = StatusExhausted
		if saveErr := s.saveState(ctx, userID, state); saveErr != nil {
			return DTO{}, saveErr
		}
		return toDTO(state), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product feed")
	}

	for _, photo := range result.Photos {
		state.Products = append(state.Products, s.synthesize(photo))
	}
	state.Page++
	if len(result.Photos) < s.cfg.PageSize {
		state.Status = StatusExhausted
	} else {
		state.Status = StatusLoaded
	}

	if err := s.saveState(ctx, userID, state); err != nil {
		return DTO{}, err
	}
	return toDTO(state), nil
}

// View projects the accumulated session through optional category and
// price bucket filters without touching the upstream.
func (s *service) View(ctx context.Context, userID uuid.UUID, category, priceBucket string) (DTO, error) {
	if userID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	state, err := s.loadState(ctx, userID)
	if err != nil {
		return DTO{}, err
	}

	dto := toDTO(state)
	category = strings.TrimSpace(strings.ToLower(category))
	priceBucket = strings.TrimSpace(strings.ToLower(priceBucket))
	if category == "" && priceBucket == "" {
		return dto, nil
	}

	filtered := make([]catalog.Product, 0, len(dto.Products))
	for _, product := range dto.Products {
		if category != "" && product.Category != category {
			continue
		}
		if priceBucket != "" && product.PriceBucket != priceBucket {
			continue
		}
		filtered = append(filtered, product)
	}
	dto.Products = filtered
	return dto, nil
}

func (s *service) loadState(ctx context.Context, userID uuid.UUID) (State, error) {
	raw, err := s.store.Get(ctx, s.store.FeedStateKey(userID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return newState(s.cfg.DefaultQuery), nil
		}
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feed session")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt session is discarded, not fatal.
		return newState(s.cfg.DefaultQuery), nil
	}
	if state.Page <= 0 {
		state.Page = 1
	}
	return state, nil
}

func (s *service) saveState(ctx context.Context, userID uuid.UUID, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode feed session")
	}
	key := s.store.FeedStateKey(userID.String())
	if err := s.store.Set(ctx, key, string(payload), s.cfg.SessionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist feed session")
	}
	return nil
}

// synthesize turns a photo into a sellable product. Prices are random per
// sighting, so the same photo can reappear at a different price in a new
// session.
func (s *service) synthesize(photo pexels.Photo) catalog.Product {
	units := s.cfg.PriceFloor + rand.Int63n(s.cfg.PriceCeiling-s.cfg.PriceFloor)
	priceCents := units * 100

	name := strings.TrimSpace(photo.Alt)
	if name == "" {
		name = "Featured find"
	}

	imageURL := photo.Src.Medium
	if imageURL == "" {
		imageURL = photo.Src.Original
	}

	largeImageURL := photo.Src.Large
	if largeImageURL == "" {
		largeImageURL = photo.Src.Original
	}

	return catalog.Product{
		ID:            strconv.FormatInt(photo.ID, 10),
		Name:          name,
		PriceCents:    priceCents,
		ImageURL:      imageURL,
		LargeImageURL: largeImageURL,
		Category:      catalog.DetectCategory(photo.Alt),
		PriceBucket:   catalog.PriceBucketFor(priceCents),
	}
}

func toDTO(state State) DTO {
	return DTO{
		Query:      state.Query,
		Page:       state.Page,
		Status:     state.Status,
		HasMore:    state.HasMore(),
		Categories: state.Categories(),
		Products:   state.Products,
	}
}
