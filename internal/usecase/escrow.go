package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/tictactoe"
)

const lockTimeout = 5 * time.Second

type EscrowGameUseCase interface {
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

type gameService interface {
	NewGameID() string
	CreateGame(ctx context.Context, game *entity.Game) error
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	ListGamesByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error)
}

type custodyService interface {
	Execute(ctx context.Context, transfers ...entity.Transfer) error
	Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error
	Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error)
	History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error)
}

type keyLocker interface {
	WithLockTimeout(ctx context.Context, key string, timeout time.Duration, fn func() error) error
}

type escrowGameUseCase struct {
	logger    *slog.Logger
	games     gameService
	custody   custodyService
	locker    keyLocker
	authority tictactoe.Authority
}

func NewEscrowGameUseCase(
	logger *slog.Logger,
	games gameService,
	custody custodyService,
	locker keyLocker,
	authority tictactoe.Authority,
) EscrowGameUseCase {
	return &escrowGameUseCase{
		logger:    logger.With("component", "escrow-game"),
		games:     games,
		custody:   custody,
		locker:    locker,
		authority: authority,
	}
}

func (that *escrowGameUseCase) withGame(ctx context.Context, gameID string, fn func() error) error {
	return that.locker.WithLockTimeout(ctx, "game:"+gameID, lockTimeout, fn)
}

// CreateGame allocates the record and escrows the initiator's stake.
// The handle is fresh, so allocation alone guards it. The record is removed again if the stake can not be collected.
func (that *escrowGameUseCase) CreateGame(
	ctx context.Context, caller, acceptor entity.Identity, asset entity.Asset, amount uint64,
) (*entity.Game, error) {
	log := that.logger.With("method", "CreateGame")

	game, deposit, err := tictactoe.Create(that.games.NewGameID(), caller, acceptor, asset, amount, that.authority)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.games.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.custody.Execute(ctx, deposit); err != nil {
		if delErr := that.games.DeleteGame(ctx, game.ID); delErr != nil {
			log.Error("failed to drop unfunded game", "gameID", game.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info("game created", "gameID", game.ID, "initiator", caller, "acceptor", acceptor,
		"asset", asset, "amount", amount)

	return game, nil
}

// AcceptGame escrows the acceptor's stake and starts the game.
func (that *escrowGameUseCase) AcceptGame(ctx context.Context, gameID string, caller entity.Identity) (*entity.Game, error) {
	log := that.logger.With("method", "AcceptGame")

	var game *entity.Game

	err := that.withGame(ctx, gameID, func() error {
		var err error

		game, err = that.games.GetGameByID(ctx, gameID)
		if err != nil {
			return err
		}

		if caller != game.Acceptor() {
			return fmt.Errorf("%w: only %s can accept", apperror.ErrNotAuthorized, game.Acceptor())
		}

		deposit, err := tictactoe.Accept(game, that.authority)
		if err != nil {
			return err
		}

		if err = that.custody.Execute(ctx, deposit); err != nil {
			return err
		}

		if err = that.games.UpdateGame(ctx, game); err != nil {
			that.refund(ctx, log, game, game.Acceptor())
			return err
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept game: %w", err)
	}

	log.Info("game accepted", "gameID", gameID, "caller", caller, "phase", game.Phase)

	return game, nil
}

func (that *escrowGameUseCase) MakeMove(
	ctx context.Context, gameID string, caller entity.Identity, row, col uint8,
) (*entity.Game, error) {
	log := that.logger.With("method", "MakeMove")

	var game *entity.Game

	err := that.withGame(ctx, gameID, func() error {
		var err error

		game, err = that.games.GetGameByID(ctx, gameID)
		if err != nil {
			return err
		}

		if err = tictactoe.Play(game, caller, row, col); err != nil {
			return err
		}

		return that.games.UpdateGame(ctx, game)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	log.Info("move played", "gameID", gameID, "caller", caller, "row", row, "col", col, "phase", game.Phase)

	return game, nil
}

// CloseGame settles a finished game. Anyone may close it.
// The record is destroyed before the payout so a settlement can only be claimed once.
func (that *escrowGameUseCase) CloseGame(ctx context.Context, gameID string) (*entity.Settlement, error) {
	log := that.logger.With("method", "CloseGame")

	var settlement *entity.Settlement

	err := that.withGame(ctx, gameID, func() error {
		game, err := that.games.GetGameByID(ctx, gameID)
		if err != nil {
			return err
		}

		settlement, err = tictactoe.Close(game, that.authority)
		if err != nil {
			return err
		}

		if err = that.games.DeleteGame(ctx, gameID); err != nil {
			return err
		}

		if err = that.custody.Execute(ctx, settlement.Transfers...); err != nil {
			if restoreErr := that.games.CreateGame(ctx, game); restoreErr != nil {
				log.Error("failed to restore unsettled game", "gameID", gameID, "error", restoreErr)
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to close game: %w", err)
	}

	log.Info("game closed", "gameID", gameID, "outcome", settlement.Outcome,
		"winner", settlement.Winner, "rentReceiver", settlement.RentReceiver)

	return settlement, nil
}

func (that *escrowGameUseCase) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.games.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// ListGames returns the caller's games, optionally narrowed to the given phases.
// Unaccepted games only count when the caller is the one invited to accept them.
func (that *escrowGameUseCase) ListGames(
	ctx context.Context, caller entity.Identity, phases ...entity.PhaseKind,
) ([]*entity.Game, error) {
	games, err := that.games.ListGamesByPlayer(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	if len(phases) == 0 {
		return games, nil
	}

	matched := make([]*entity.Game, 0, len(games))
	for _, game := range games {
		if !slices.Contains(phases, game.Phase.Kind) {
			continue
		}

		if game.Phase.Kind == entity.PhaseUnaccepted && game.Acceptor() != caller {
			continue
		}

		matched = append(matched, game)
	}

	return matched, nil
}

func (that *escrowGameUseCase) Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error) {
	return that.custody.Balance(ctx, owner, asset)
}

func (that *escrowGameUseCase) Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error {
	return that.custody.Deposit(ctx, owner, asset, amount)
}

func (that *escrowGameUseCase) History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error) {
	return that.custody.History(ctx, owner, limit)
}

// refund returns a stake that was collected for a write that did not persist.
func (that *escrowGameUseCase) refund(ctx context.Context, log *slog.Logger, game *entity.Game, to entity.Identity) {
	escrow := that.authority.Identity()

	err := that.custody.Execute(ctx, entity.Transfer{
		Asset:     game.StakeAsset,
		Amount:    game.StakeAmount,
		From:      escrow,
		To:        to,
		Authority: escrow,
	})
	if err != nil {
		log.Error("failed to refund stake", "gameID", game.ID, "to", to, "error", err)
	}
}
