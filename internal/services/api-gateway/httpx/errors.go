package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/domain/user"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
)

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StatusOf maps domain and transport errors to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput), errors.Is(err, notification.ErrNoBabies),
		errors.Is(err, notification.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, location.ErrNotFound), errors.Is(err, notification.ErrNotFound),
		errors.Is(err, user.ErrNotFound), errors.Is(err, role.ErrUnknownRole):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, location.ErrCycle):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	code := StatusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		obs.WithTrace(r.Context(), log).Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		msg = http.StatusText(code)
	}
	WriteJSON(w, code, errorBody{Error: msg, Code: code})
}
