package tictactoe

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// Authority is the escrow signer. It is derived outside of this package and only handed in.
type Authority interface {
	Identity() entity.Identity
}

// MaxStake keeps both deposits and the doubled payout inside a signed 64-bit ledger balance.
const MaxStake = math.MaxInt64 / 2

// Create builds a new unaccepted game and the transfer that moves the initiator's stake into escrow.
func Create(id string, initiator, acceptor entity.Identity, asset entity.Asset, amount uint64, authority Authority) (*entity.Game, entity.Transfer, error) {
	if amount == 0 {
		return nil, entity.Transfer{}, apperror.ErrZeroStakeAmount
	}

	if amount > MaxStake {
		return nil, entity.Transfer{}, fmt.Errorf("%w: %d", apperror.ErrStakeTooLarge, amount)
	}

	if initiator == acceptor {
		return nil, entity.Transfer{}, apperror.ErrSamePlayers
	}

	game := &entity.Game{
		ID:          id,
		Players:     [2]entity.Identity{initiator, acceptor},
		Phase:       entity.Unaccepted(),
		StakeAsset:  asset,
		StakeAmount: amount,
	}

	return game, deposit(game, initiator, authority), nil
}

// Accept funds the acceptor's stake and starts the game with the initiator to move.
// The caller has to be checked against the acceptor before calling it.
func Accept(game *entity.Game, authority Authority) (entity.Transfer, error) {
	if game.Phase.Kind != entity.PhaseUnaccepted {
		return entity.Transfer{}, apperror.ErrGameAlreadyAccepted
	}

	transfer := deposit(game, game.Acceptor(), authority)
	game.Phase = entity.Turn(0)

	return transfer, nil
}

func Play(game *entity.Game, caller entity.Identity, row, col uint8) error {
	if err := game.Play(caller, row, col); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	return nil
}

// Close computes the payout of a finished game. Every transfer is signed by the escrow authority.
func Close(game *entity.Game, authority Authority) (*entity.Settlement, error) {
	escrow := authority.Identity()

	payout := func(to entity.Identity, amount uint64) entity.Transfer {
		return entity.Transfer{
			Asset:     game.StakeAsset,
			Amount:    amount,
			From:      escrow,
			To:        to,
			Authority: escrow,
		}
	}

	settlement := &entity.Settlement{
		GameID:       game.ID,
		RentReceiver: game.Initiator(),
	}

	switch game.Phase.Kind {
	case entity.PhaseDraw:
		settlement.Outcome = entity.OutcomeDraw
		settlement.Transfers = []entity.Transfer{
			payout(game.Players[0], game.StakeAmount),
			payout(game.Players[1], game.StakeAmount),
		}
	case entity.PhaseOver:
		winner := game.Phase.Winner
		if winner != game.Players[0] && winner != game.Players[1] {
			return nil, fmt.Errorf("%w: winner %q is not a player", apperror.ErrCorruptRecord, winner)
		}

		settlement.Outcome = entity.OutcomeWin
		settlement.Winner = winner
		settlement.Transfers = []entity.Transfer{
			payout(winner, 2*game.StakeAmount),
		}
	case entity.PhaseUnaccepted, entity.PhaseTurn:
		return nil, apperror.ErrGameNotCompleted
	default:
		return nil, fmt.Errorf("%w: phase %d", apperror.ErrCorruptRecord, game.Phase.Kind)
	}

	return settlement, nil
}

// deposit moves a player's stake into the escrow account; the player signs it.
func deposit(game *entity.Game, player entity.Identity, authority Authority) entity.Transfer {
	return entity.Transfer{
		Asset:     game.StakeAsset,
		Amount:    game.StakeAmount,
		From:      player,
		To:        authority.Identity(),
		Authority: player,
	}
}
