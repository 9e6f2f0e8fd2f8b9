package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shoplight/shoplight-backend/api/responses"
	"github.com/shoplight/shoplight-backend/api/validators"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/logger"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
)

// SearchImages proxies image search to the upstream provider so the API
// key never reaches the browser. Upstream error responses are relayed
// with their original status and body.
func SearchImages(client *pexels.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image search unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", 15, 1, 80)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := client.Search(r.Context(), query, page, perPage)
		if err != nil {
			var upstream *pexels.UpstreamError
			if errors.As(err, &upstream) {
				responses.WriteRaw(w, upstream.StatusCode, "application/json", upstream.Body)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, "application/json", result.Raw)
	}
}
