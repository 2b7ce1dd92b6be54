package usecase

import (
	"context"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockGameService struct {
	mock.Mock
}

func (m *mockGameService) NewGameID() string {
	return m.Called().String(0)
}

func (m *mockGameService) CreateGame(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *mockGameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *mockGameService) DeleteGame(ctx context.Context, gameID string) error {
	return m.Called(ctx, gameID).Error(0)
}

func (m *mockGameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (m *mockGameService) ListGamesByPlayer(ctx context.Context, player entity.Identity) ([]*entity.Game, error) {
	args := m.Called(ctx, player)
	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

type mockCustodyService struct {
	mock.Mock
}

func (m *mockCustodyService) Execute(ctx context.Context, transfers ...entity.Transfer) error {
	return m.Called(ctx, transfers).Error(0)
}

func (m *mockCustodyService) Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error {
	return m.Called(ctx, owner, asset, amount).Error(0)
}

func (m *mockCustodyService) Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error) {
	args := m.Called(ctx, owner, asset)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockCustodyService) History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error) {
	args := m.Called(ctx, owner, limit)
	transfers, _ := args.Get(0).([]entity.Transfer)
	return transfers, args.Error(1)
}

type passLocker struct {
	keys []string
}

func (p *passLocker) WithLockTimeout(_ context.Context, key string, _ time.Duration, fn func() error) error {
	p.keys = append(p.keys, key)
	return fn()
}

type stubAuthority struct{}

func (stubAuthority) Identity() entity.Identity { return escrow }
