package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// LedgerRepository keeps custodial balances. An account is addressed by its owner and asset.
type LedgerRepository interface {
	Transfer(ctx context.Context, transfers ...entity.Transfer) error
	Credit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error
	Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error)
	History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error)
}

type ledgerRepository struct {
	conn *sql.DB
	now  func() time.Time
}

func NewLedgerRepository(conn *sql.DB) LedgerRepository {
	return &ledgerRepository{
		conn: conn,
		now:  time.Now,
	}
}

// Transfer applies the transfers in order inside one transaction. Either all of them land or none do.
// Each source account must be signed for by its owner.
func (that *ledgerRepository) Transfer(ctx context.Context, transfers ...entity.Transfer) error {
	for _, transfer := range transfers {
		if err := validateTransfer(transfer); err != nil {
			return err
		}
	}

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, transfer := range transfers {
		if err = that.apply(ctx, tx, transfer); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transfer: %w", err)
	}

	return nil
}

func validateTransfer(transfer entity.Transfer) error {
	if transfer.Amount == 0 || transfer.Amount > math.MaxInt64 {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidAmount, transfer.Amount)
	}

	if transfer.Authority != transfer.From {
		return fmt.Errorf("%w: %s signed for %s", apperror.ErrInvalidAuthority, transfer.Authority, transfer.From)
	}

	return nil
}

func (that *ledgerRepository) apply(ctx context.Context, tx *sql.Tx, transfer entity.Transfer) error {
	balance, err := balanceOf(ctx, tx, transfer.From, transfer.Asset)
	if err != nil {
		return err
	}

	if balance < transfer.Amount {
		return fmt.Errorf("%w: %s holds %d %s, needs %d",
			apperror.ErrInsufficientFunds, transfer.From, balance, transfer.Asset, transfer.Amount)
	}

	if err = addBalance(ctx, tx, transfer.From, transfer.Asset, -int64(transfer.Amount)); err != nil {
		return fmt.Errorf("can't debit %s: %w", transfer.From, err)
	}

	if err = addBalance(ctx, tx, transfer.To, transfer.Asset, int64(transfer.Amount)); err != nil {
		return fmt.Errorf("can't credit %s: %w", transfer.To, err)
	}

	query := `INSERT INTO transfers (asset, amount, from_owner, to_owner, authority, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		string(transfer.Asset), int64(transfer.Amount),
		string(transfer.From), string(transfer.To), string(transfer.Authority),
		that.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("can't record transfer: %w", err)
	}

	return nil
}

// Credit mints funds into an account. It backs the development faucet.
func (that *ledgerRepository) Credit(ctx context.Context, owner entity.Identity, asset entity.Asset, amount uint64) error {
	if amount == 0 || amount > math.MaxInt64 {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidAmount, amount)
	}

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin credit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err = addBalance(ctx, tx, owner, asset, int64(amount)); err != nil {
		return fmt.Errorf("can't credit %s: %w", owner, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit credit: %w", err)
	}

	return nil
}

func (that *ledgerRepository) Balance(ctx context.Context, owner entity.Identity, asset entity.Asset) (uint64, error) {
	return balanceOf(ctx, that.conn, owner, asset)
}

// History lists the newest transfers touching the owner's accounts.
func (that *ledgerRepository) History(ctx context.Context, owner entity.Identity, limit int) ([]entity.Transfer, error) {
	query := `SELECT asset, amount, from_owner, to_owner, authority FROM transfers
		WHERE from_owner = ? OR to_owner = ? ORDER BY id DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, string(owner), string(owner), limit)
	if err != nil {
		return nil, fmt.Errorf("can't get transfers: %w", err)
	}
	defer rows.Close()

	var transfers []entity.Transfer
	for rows.Next() {
		var (
			transfer entity.Transfer
			amount   int64
		)

		if err = rows.Scan(&transfer.Asset, &amount, &transfer.From, &transfer.To, &transfer.Authority); err != nil {
			return nil, fmt.Errorf("can't scan transfer: %w", err)
		}

		transfer.Amount = uint64(amount)
		transfers = append(transfers, transfer)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}

	return transfers, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balanceOf(ctx context.Context, q queryer, owner entity.Identity, asset entity.Asset) (uint64, error) {
	query := `SELECT amount FROM balances WHERE owner = ? AND asset = ?`

	var amount int64

	err := q.QueryRowContext(ctx, query, string(owner), string(asset)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("can't get balance: %w", err)
	}

	return uint64(amount), nil
}

func addBalance(ctx context.Context, tx *sql.Tx, owner entity.Identity, asset entity.Asset, delta int64) error {
	current, err := balanceOf(ctx, tx, owner, asset)
	if err != nil {
		return err
	}

	if delta > 0 && current > uint64(math.MaxInt64-delta) {
		return fmt.Errorf("%w: %s %s", apperror.ErrBalanceOverflow, owner, asset)
	}

	// CHECK constraints run before upsert conflict handling, so debits must update in place.
	query := `INSERT INTO balances (owner, asset, amount) VALUES (?, ?, ?)
		ON CONFLICT (owner, asset) DO UPDATE SET amount = amount + excluded.amount`
	if delta < 0 {
		query = `UPDATE balances SET amount = amount + ? WHERE owner = ? AND asset = ?`
		_, err = tx.ExecContext(ctx, query, delta, string(owner), string(asset))
	} else {
		_, err = tx.ExecContext(ctx, query, string(owner), string(asset), delta)
	}

	if err != nil {
		return fmt.Errorf("can't update balance: %w", err)
	}

	return nil
}
