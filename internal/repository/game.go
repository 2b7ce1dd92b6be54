package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	ListByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func playerGamesKey(player entity.Identity) string {
	return "player:" + string(player) + ":games"
}

// Create allocates the record and indexes it under both players. It fails if the handle is already taken.
func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	data, err := game.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	created, err := that.client.SetNX(ctx, gameKey(game.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: game id %s", apperror.ErrGameAlreadyExists, game.ID)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, player := range game.Players {
			pipe.SAdd(ctx, playerGamesKey(player), game.ID)
		}
		return nil
	})
	if err != nil {
		_ = that.client.Del(ctx, gameKey(game.ID)).Err()
		return fmt.Errorf("failed to index game: %w", err)
	}

	return nil
}

// Update overwrites an existing record. A destroyed record is never brought back.
func (that *dbGame) Update(ctx context.Context, game *entity.Game) error {
	data, err := game.MarshalBinary()
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	updated, err := that.client.SetXX(ctx, gameKey(game.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	if !updated {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	existingGame := &entity.Game{ID: id}
	if err = existingGame.UnmarshalBinary(response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return existingGame, nil
}

// DeleteByID destroys the record and drops it from both players' indexes.
func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	game, err := that.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var deleted *redis.IntCmd

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(id))
		for _, player := range game.Players {
			pipe.SRem(ctx, playerGamesKey(player), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted.Val() == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

// ListByPlayer returns every live game the player takes part in, ordered by handle.
// Index entries whose record is gone are pruned.
func (that *dbGame) ListByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, playerGamesKey(player)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.Game, 0, len(ids))
	var stale []any

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}

		game := &entity.Game{ID: ids[i]}
		if err = game.UnmarshalBinary([]byte(raw)); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game %s: %w", ids[i], err)
		}

		games = append(games, game)
	}

	if len(stale) > 0 {
		_ = that.client.SRem(ctx, playerGamesKey(player), stale...).Err()
	}

	return games, nil
}
