package tictactoe

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice  entity.Identity = "alice"
	bob    entity.Identity = "bob"
	escrow entity.Identity = "escrow-authority"
)

type stubAuthority struct{}

func (stubAuthority) Identity() entity.Identity { return escrow }

func newAcceptedGame(t *testing.T) *entity.Game {
	t.Helper()

	game, _, err := Create("123", alice, bob, "usdc", 50, stubAuthority{})
	require.NoError(t, err)

	_, err = Accept(game, stubAuthority{})
	require.NoError(t, err)

	return game
}

func TestCreate(t *testing.T) {
	t.Run("Creates an unaccepted game and escrows the initiator stake", func(t *testing.T) {
		// When: alice creates a game against bob
		game, transfer, err := Create("123", alice, bob, "usdc", 50, stubAuthority{})
		require.NoError(t, err)

		// Then: the record starts unaccepted with an empty board
		expectedGame := &entity.Game{
			ID:          "123",
			Players:     [2]entity.Identity{alice, bob},
			Phase:       entity.Unaccepted(),
			StakeAsset:  "usdc",
			StakeAmount: 50,
		}
		require.Equal(t, expectedGame, game)

		// Then: alice's stake goes to escrow under her own signature
		assert.Equal(t, entity.Transfer{Asset: "usdc", Amount: 50, From: alice, To: escrow, Authority: alice}, transfer)
	})

	t.Run("Error on zero stake", func(t *testing.T) {
		// When: creating a game without stake
		game, _, err := Create("123", alice, bob, "usdc", 0, stubAuthority{})

		// Then: ErrZeroStakeAmount is returned and no record exists
		require.ErrorIs(t, err, apperror.ErrZeroStakeAmount)
		assert.Nil(t, game)
	})

	t.Run("Error on stake that can not be paid out", func(t *testing.T) {
		// When: the doubled stake would overflow
		game, _, err := Create("123", alice, bob, "usdc", MaxStake+1, stubAuthority{})

		// Then: ErrStakeTooLarge is returned
		require.ErrorIs(t, err, apperror.ErrStakeTooLarge)
		assert.Nil(t, game)
	})

	t.Run("Error on playing against yourself", func(t *testing.T) {
		// When: alice names herself as acceptor
		game, _, err := Create("123", alice, alice, "usdc", 10, stubAuthority{})

		// Then: ErrSamePlayers is returned
		require.ErrorIs(t, err, apperror.ErrSamePlayers)
		assert.Nil(t, game)
	})
}

func TestAccept(t *testing.T) {
	t.Run("Starts the game with the initiator to move", func(t *testing.T) {
		// Given: an unaccepted game
		game, _, err := Create("123", alice, bob, "usdc", 50, stubAuthority{})
		require.NoError(t, err)

		// When: bob accepts it
		transfer, err := Accept(game, stubAuthority{})
		require.NoError(t, err)

		// Then: bob's stake goes to escrow and alice moves first
		assert.Equal(t, entity.Transfer{Asset: "usdc", Amount: 50, From: bob, To: escrow, Authority: bob}, transfer)
		assert.Equal(t, entity.Turn(0), game.Phase)
	})

	t.Run("Error on second acceptance", func(t *testing.T) {
		// Given: an accepted game
		game := newAcceptedGame(t)
		require.NoError(t, Play(game, alice, 1, 1))
		before := *game

		// When: accepting it again
		_, err := Accept(game, stubAuthority{})

		// Then: ErrGameAlreadyAccepted is returned and nothing changes
		require.ErrorIs(t, err, apperror.ErrGameAlreadyAccepted)
		assert.Equal(t, before, *game)
	})
}

func TestPlay(t *testing.T) {
	t.Run("Wraps move errors", func(t *testing.T) {
		// Given: an accepted game
		game := newAcceptedGame(t)

		// When: bob moves on alice's turn
		err := Play(game, bob, 0, 0)

		// Then: the sentinel is still reachable
		require.ErrorIs(t, err, apperror.ErrNotAuthorized)
		assert.Contains(t, err.Error(), "invalid move")
	})
}

func TestClose(t *testing.T) {
	t.Run("Pays the whole pot to the winner", func(t *testing.T) {
		// Given: a game alice won on the first row
		game := newAcceptedGame(t)
		for _, move := range []struct {
			player   entity.Identity
			row, col uint8
		}{{alice, 0, 0}, {bob, 1, 1}, {alice, 0, 1}, {bob, 2, 2}, {alice, 0, 2}} {
			require.NoError(t, Play(game, move.player, move.row, move.col))
		}
		require.Equal(t, entity.Over(alice), game.Phase)

		// When: closing the game
		settlement, err := Close(game, stubAuthority{})
		require.NoError(t, err)

		// Then: one transfer of twice the stake signed by the escrow authority
		expected := &entity.Settlement{
			GameID:  "123",
			Outcome: entity.OutcomeWin,
			Winner:  alice,
			Transfers: []entity.Transfer{
				{Asset: "usdc", Amount: 100, From: escrow, To: alice, Authority: escrow},
			},
			RentReceiver: alice,
		}
		assert.Equal(t, expected, settlement)
	})

	t.Run("Refunds both stakes on a draw", func(t *testing.T) {
		// Given: a drawn game
		game := newAcceptedGame(t)
		game.Phase = entity.Draw()

		// When: closing the game
		settlement, err := Close(game, stubAuthority{})
		require.NoError(t, err)

		// Then: each depositor gets their own stake back
		require.Len(t, settlement.Transfers, 2)
		assert.Equal(t, entity.OutcomeDraw, settlement.Outcome)
		assert.Equal(t, entity.Transfer{Asset: "usdc", Amount: 50, From: escrow, To: alice, Authority: escrow}, settlement.Transfers[0])
		assert.Equal(t, entity.Transfer{Asset: "usdc", Amount: 50, From: escrow, To: bob, Authority: escrow}, settlement.Transfers[1])
		assert.Equal(t, alice, settlement.RentReceiver)
	})

	t.Run("Refunds both stakes after a played out draw", func(t *testing.T) {
		// Given: nine moves that fill the board without a line
		game := newAcceptedGame(t)
		for i, tile := range [][2]uint8{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}, {2, 2}} {
			require.NoError(t, Play(game, game.Players[i%2], tile[0], tile[1]))
		}
		require.Equal(t, entity.Draw(), game.Phase)
		require.Equal(t, 9, game.Board.Filled())

		// When: closing the game
		settlement, err := Close(game, stubAuthority{})
		require.NoError(t, err)

		// Then: each player gets exactly their stake back from escrow
		expected := &entity.Settlement{
			GameID:  "123",
			Outcome: entity.OutcomeDraw,
			Transfers: []entity.Transfer{
				{Asset: "usdc", Amount: 50, From: escrow, To: alice, Authority: escrow},
				{Asset: "usdc", Amount: 50, From: escrow, To: bob, Authority: escrow},
			},
			RentReceiver: alice,
		}
		assert.Equal(t, expected, settlement)
	})

	t.Run("Error on unfinished game", func(t *testing.T) {
		// Given: an unaccepted game, a fresh game and an almost full board
		unaccepted, _, err := Create("1", alice, bob, "usdc", 5, stubAuthority{})
		require.NoError(t, err)

		fresh := newAcceptedGame(t)

		almostFull := newAcceptedGame(t)
		for i, tile := range [][2]uint8{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}} {
			require.NoError(t, Play(almostFull, almostFull.Players[i%2], tile[0], tile[1]))
		}
		require.Equal(t, entity.Turn(0), almostFull.Phase)

		for _, game := range []*entity.Game{unaccepted, fresh, almostFull} {
			// When: closing it
			settlement, err := Close(game, stubAuthority{})

			// Then: ErrGameNotCompleted is returned
			require.ErrorIs(t, err, apperror.ErrGameNotCompleted)
			assert.Nil(t, settlement)
		}
	})

	t.Run("Error on a winner outside the game", func(t *testing.T) {
		// Given: a record whose winner is not a participant
		game := newAcceptedGame(t)
		game.Phase = entity.Over("mallory")

		// When: closing it
		_, err := Close(game, stubAuthority{})

		// Then: the record is reported as corrupt
		require.ErrorIs(t, err, apperror.ErrCorruptRecord)
	})
}
