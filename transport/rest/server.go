package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger   *slog.Logger
	handlers *handlers
	auth     authService
	dev      config.Dev
}

func New(logger *slog.Logger, dev config.Dev, games escrowUseCase, auth authService) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		handlers: &handlers{
			logger: logger.With("component", "rest"),
			games:  games,
			auth:   auth,
		},
		auth: auth,
		dev:  dev,
	}
}

// Routes builds the HTTP surface. Dev routes live under /dev/ and are only mounted when enabled.
func (that *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	signed := requireSigner(that.logger, that.auth)

	mux.HandleFunc("GET /ping", pingHandler)

	if that.dev.IssueTokens {
		mux.HandleFunc("POST /dev/auth/token", that.handlers.issueToken)
	}

	if that.dev.Faucet {
		mux.Handle("POST /dev/accounts/deposit", signed(that.handlers.deposit))
	}

	mux.Handle("GET /accounts/{asset}", signed(that.handlers.balance))
	mux.Handle("GET /transfers", signed(that.handlers.history))

	mux.Handle("GET /games", signed(that.handlers.listGames))
	mux.Handle("POST /games", signed(that.handlers.createGame))
	mux.HandleFunc("GET /games/{id}", that.handlers.getGame)
	mux.Handle("POST /games/{id}/accept", signed(that.handlers.acceptGame))
	mux.Handle("POST /games/{id}/moves", signed(that.handlers.makeMove))
	mux.Handle("POST /games/{id}/close", signed(that.handlers.closeGame))

	recovery := gorilla.RecoveryHandler(
		gorilla.RecoveryLogger(slog.NewLogLogger(that.logger.Handler(), slog.LevelError)),
	)

	return recovery(mux)
}

// Start serves until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
