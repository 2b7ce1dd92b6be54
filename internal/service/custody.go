package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type CustodyService interface {
	Execute(ctx context.Context, transfers ...entity.Transfer) error
	Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error
	Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error)
	History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error)
}

type ledgerRepo interface {
	Transfer(ctx context.Context, transfers ...entity.Transfer) error
	Credit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error
	Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error)
	History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error)
}

type custodyService struct {
	logger *slog.Logger
	ledger ledgerRepo
}

func NewCustodyService(logger *slog.Logger, ledger ledgerRepo) CustodyService {
	return &custodyService{
		logger: logger.With("component", "custody"),
		ledger: ledger,
	}
}

// Execute carries out the transfers atomically.
func (that *custodyService) Execute(ctx context.Context, transfers ...entity.Transfer) error {
	log := that.logger.With("method", "Execute")

	if err := that.ledger.Transfer(ctx, transfers...); err != nil {
		log.Warn("transfers rejected", "count", len(transfers), "error", err)
		return fmt.Errorf("failed to execute transfers: %w", err)
	}

	for _, transfer := range transfers {
		log.Info("transfer executed", "from", transfer.From, "to", transfer.To,
			"asset", transfer.Asset, "amount", transfer.Amount)
	}

	return nil
}

// Deposit mints funds for an owner.
func (that *custodyService) Deposit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error {
	if err := that.ledger.Credit(ctx, owner, asset, amount); err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}

	that.logger.Info("deposit", "owner", owner, "asset", asset, "amount", amount)

	return nil
}

func (that *custodyService) Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error) {
	balance, err := that.ledger.Balance(ctx, owner, asset)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (that *custodyService) History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error) {
	transfers, err := that.ledger.History(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return transfers, nil
}
