package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type callerKey struct{}

// requireSigner resolves the bearer token into the calling identity.
func requireSigner(logger *slog.Logger, auth authService) func(http.HandlerFunc) http.Handler {
	log := logger.With("method", "requireSigner")

	return func(next http.HandlerFunc) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, apperror.ErrUnauthenticated)
				return
			}

			identity, err := auth.VerifyToken(token)
			if err != nil {
				log.Debug("token rejected", "error", err)
				writeError(w, err)
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, identity)))
		})
	}
}

func callerFrom(ctx context.Context) entity.Identity {
	identity, _ := ctx.Value(callerKey{}).(entity.Identity)
	return identity
}
