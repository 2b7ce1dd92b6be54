package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 16
)

type escrowUseCase interface {
	CreateGame(ctx context.Context, caller, acceptor entity.Identity, asset entity.Asset, amount uint64) (*entity.Game, error)
	AcceptGame(ctx context.Context, gameID string, caller entity.Identity) (*entity.Game, error)
	MakeMove(ctx context.Context, gameID string, caller entity.Identity, row, col uint8) (*entity.Game, error)
	CloseGame(ctx context.Context, gameID string) (*entity.Settlement, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	ListGames(ctx context.Context, caller entity.Identity, phases ...entity.PhaseKind) ([]*entity.Game, error)

	Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error)
	Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error
	History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error)
}

type authService interface {
	GenerateToken(identity entity.Identity) (string, error)
	VerifyToken(token string) (entity.Identity, error)
}

type handlers struct {
	logger *slog.Logger
	games  escrowUseCase
	auth   authService
}

type createGameRequest struct {
	Acceptor entity.Identity `json:"acceptor"`
	Asset    entity.Asset    `json:"asset"`
	Amount   uint64          `json:"amount"`
}

type moveRequest struct {
	Row *uint8 `json:"row"`
	Col *uint8 `json:"col"`
}

type tokenRequest struct {
	Identity entity.Identity `json:"identity"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type depositRequest struct {
	Asset  entity.Asset `json:"asset"`
	Amount uint64       `json:"amount"`
}

type balanceResponse struct {
	Owner   entity.Identity `json:"owner"`
	Asset   entity.Asset    `json:"asset"`
	Balance uint64          `json:"balance"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func (that *handlers) fail(w http.ResponseWriter, method string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
	}

	writeError(w, err)
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, "createGame", err)
		return
	}

	if req.Acceptor == "" || req.Asset == "" {
		that.fail(w, "createGame", fmt.Errorf("%w: acceptor and asset are required", errBadRequest))
		return
	}

	game, err := that.games.CreateGame(r.Context(), callerFrom(r.Context()), req.Acceptor, req.Asset, req.Amount)
	if err != nil {
		that.fail(w, "createGame", err)
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.fail(w, "getGame", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// listGames serves the caller's games. phase may repeat; unaccepted means invitations to the caller.
func (that *handlers) listGames(w http.ResponseWriter, r *http.Request) {
	var phases []entity.PhaseKind

	for _, name := range r.URL.Query()["phase"] {
		kind, ok := entity.ParsePhaseKind(name)
		if !ok {
			that.fail(w, "listGames", fmt.Errorf("%w: unknown phase %q", errBadRequest, name))
			return
		}
		phases = append(phases, kind)
	}

	games, err := that.games.ListGames(r.Context(), callerFrom(r.Context()), phases...)
	if err != nil {
		that.fail(w, "listGames", err)
		return
	}

	if games == nil {
		games = []*entity.Game{}
	}

	writeJSON(w, http.StatusOK, games)
}

func (that *handlers) acceptGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.AcceptGame(r.Context(), r.PathValue("id"), callerFrom(r.Context()))
	if err != nil {
		that.fail(w, "acceptGame", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) makeMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, "makeMove", err)
		return
	}

	if req.Row == nil || req.Col == nil {
		that.fail(w, "makeMove", fmt.Errorf("%w: row and col are required", errBadRequest))
		return
	}

	game, err := that.games.MakeMove(r.Context(), r.PathValue("id"), callerFrom(r.Context()), *req.Row, *req.Col)
	if err != nil {
		that.fail(w, "makeMove", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *handlers) closeGame(w http.ResponseWriter, r *http.Request) {
	settlement, err := that.games.CloseGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.fail(w, "closeGame", err)
		return
	}

	writeJSON(w, http.StatusOK, settlement)
}

func (that *handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, "issueToken", err)
		return
	}

	token, err := that.auth.GenerateToken(req.Identity)
	if err != nil {
		that.fail(w, "issueToken", err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (that *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decode(w, r, &req); err != nil {
		that.fail(w, "deposit", err)
		return
	}

	caller := callerFrom(r.Context())

	if err := that.games.Deposit(r.Context(), caller, req.Asset, req.Amount); err != nil {
		that.fail(w, "deposit", err)
		return
	}

	that.balanceOf(w, r, caller, req.Asset)
}

func (that *handlers) balance(w http.ResponseWriter, r *http.Request) {
	that.balanceOf(w, r, callerFrom(r.Context()), entity.Asset(r.PathValue("asset")))
}

func (that *handlers) balanceOf(w http.ResponseWriter, r *http.Request, owner entity.Identity, asset entity.Asset) {
	balance, err := that.games.Balance(r.Context(), owner, asset)
	if err != nil {
		that.fail(w, "balance", err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Owner: owner, Asset: asset, Balance: balance})
}

func (that *handlers) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			that.fail(w, "history", fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, maxHistoryLimit))
			return
		}
		limit = parsed
	}

	transfers, err := that.games.History(r.Context(), callerFrom(r.Context()), limit)
	if err != nil {
		that.fail(w, "history", err)
		return
	}

	if transfers == nil {
		transfers = []entity.Transfer{}
	}

	writeJSON(w, http.StatusOK, transfers)
}
