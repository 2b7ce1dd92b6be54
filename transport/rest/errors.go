package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/pkg/lock"
)

var errBadRequest = errors.New("malformed request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, apperror.ErrZeroStakeAmount),
		errors.Is(err, apperror.ErrStakeTooLarge),
		errors.Is(err, apperror.ErrSamePlayers),
		errors.Is(err, apperror.ErrInvalidTile),
		errors.Is(err, apperror.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotAuthorized),
		errors.Is(err, apperror.ErrInvalidAuthority):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrGameAlreadyExists),
		errors.Is(err, apperror.ErrUnacceptedGame),
		errors.Is(err, apperror.ErrGameAlreadyAccepted),
		errors.Is(err, apperror.ErrGameAlreadyCompleted),
		errors.Is(err, apperror.ErrGameNotCompleted),
		errors.Is(err, apperror.ErrTileAlreadyTaken):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInsufficientFunds),
		errors.Is(err, apperror.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lock.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError hides internal failures behind a generic message.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal Server Error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
