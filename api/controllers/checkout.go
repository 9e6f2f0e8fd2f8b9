package controllers

import (
	"net/http"

	"github.com/shoplight/shoplight-backend/api/responses"
	"github.com/shoplight/shoplight-backend/api/validators"
	checkoutsvc "github.com/shoplight/shoplight-backend/internal/checkout"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/logger"
)

// Checkout charges the cart and commits the order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
