package controllers

import (
	"net/http"
	"strings"

	"github.com/shoplight/shoplight-backend/api/responses"
	"github.com/shoplight/shoplight-backend/api/validators"
	feedsvc "github.com/shoplight/shoplight-backend/internal/feed"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/logger"
)

type loadFeedRequest struct {
	Query string `json:"query"`
}

// FeedView returns the caller's current feed session, optionally filtered
// by category and price bucket.
func FeedView(svc feedsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category := validators.SanitizeString(r.URL.Query().Get("category"), 32)
		priceBucket := validators.SanitizeString(r.URL.Query().Get("price_bucket"), 16)

		dto, err := svc.View(r.Context(), userID, category, priceBucket)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// FeedLoadMore appends the next page of products to the session.
func FeedLoadMore(svc feedsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The query is optional; an empty body means "more of the same".
		var payload loadFeedRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		dto, err := svc.LoadMore(r.Context(), userID, strings.TrimSpace(payload.Query))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
