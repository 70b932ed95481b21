package transport

import (
	"errors"
	"net/http"

	"mylover-shop/internal/middleware"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// idParam extracts and parses the {id} URL parameter. A false return means
// a 400 has already been written.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// actorFromRequest builds the audit actor from the authenticated request.
func actorFromRequest(r *http.Request) service.Actor {
	actor := service.Actor{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if raw, ok := middleware.GetUserID(r.Context()); ok {
		if userID, err := uuid.Parse(raw); err == nil {
			actor.UserID = &userID
		}
	}
	return actor
}

// isClientError reports whether the error maps to a 4xx response, so
// handlers only log server-side failures.
func isClientError(err error) bool {
	var ve *service.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrCategoryNotFound) ||
		errors.Is(err, repository.ErrProductSlugTaken) ||
		errors.Is(err, repository.ErrCategorySlugTaken) ||
		errors.Is(err, service.ErrCategoryInUse)
}

// respondCatalogError maps catalog service errors onto HTTP statuses.
// Returns false when the error was nil and nothing was written.
func respondCatalogError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: ve.Field, Message: ve.Message},
		})
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrProductSlugTaken),
		errors.Is(err, repository.ErrCategorySlugTaken),
		errors.Is(err, service.ErrCategoryInUse):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
	return true
}
