package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type GameService interface {
	NewGameID() string

	CreateGame(ctx context.Context, game *entity.Game) error
	UpdateGame(ctx context.Context, game *entity.Game) error
	DeleteGame(ctx context.Context, gameID string) error

	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	ListGamesByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	ListByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error)
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

// NewGameID returns a fresh record handle.
func (that *gameService) NewGameID() string {
	return uuid.NewString()
}

func (that *gameService) CreateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.Create(ctx, game); err != nil {
		return fmt.Errorf("failed to create game in storage: %w", err)
	}
	return nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return game, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

func (that *gameService) ListGamesByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error) {
	games, err := that.gameRepo.ListByPlayer(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of %s: %w", player, err)
	}
	return games, nil
}
