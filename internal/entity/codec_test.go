package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_BinaryEncoding(t *testing.T) {
	t.Run("Keeps every field of a game in progress", func(t *testing.T) {
		// Given: a game with some moves played
		game := newStartedGame()
		require.NoError(t, game.Play(alice, 0, 0))
		require.NoError(t, game.Play(bob, 2, 1))

		// When: encoding and decoding it into a record with a handle
		data, err := game.MarshalBinary()
		require.NoError(t, err)

		decoded := &Game{ID: "123"}
		err = decoded.UnmarshalBinary(data)

		// Then: the decoded record matches the original
		require.NoError(t, err)
		assert.Equal(t, game, decoded)
	})

	t.Run("Keeps the winner of a finished game", func(t *testing.T) {
		// Given: a finished game
		game := newStartedGame()
		game.Board = Board{
			{SymbolX, SymbolX, SymbolX},
			{SymbolO, SymbolO, EmptyCell},
			{EmptyCell, EmptyCell, EmptyCell},
		}
		game.Phase = Over(alice)

		// When: encoding and decoding it
		data, err := game.MarshalBinary()
		require.NoError(t, err)

		decoded := &Game{ID: game.ID}
		require.NoError(t, decoded.UnmarshalBinary(data))

		// Then: the winner survives
		assert.Equal(t, Over(alice), decoded.Phase)
		assert.Equal(t, game.Board, decoded.Board)
	})

	t.Run("Does not encode the handle", func(t *testing.T) {
		// Given: two records that only differ by handle
		first := newStartedGame()
		second := newStartedGame()
		second.ID = "456"

		// When: encoding both
		a, err := first.MarshalBinary()
		require.NoError(t, err)
		b, err := second.MarshalBinary()
		require.NoError(t, err)

		// Then: the encodings are identical
		assert.Equal(t, a, b)
	})

	t.Run("Rejects truncated data", func(t *testing.T) {
		// Given: a valid encoding with its amount cut off
		data, err := newStartedGame().MarshalBinary()
		require.NoError(t, err)

		// When: decoding the truncated data
		decoded := &Game{}
		err = decoded.UnmarshalBinary(data[:len(data)-3])

		// Then: ErrCorruptRecord is returned and the target is untouched
		require.ErrorIs(t, err, apperror.ErrCorruptRecord)
		assert.Equal(t, &Game{}, decoded)
	})

	t.Run("Rejects unknown versions and phases", func(t *testing.T) {
		data, err := (&Game{Phase: Unaccepted()}).MarshalBinary()
		require.NoError(t, err)

		badVersion := append([]byte{}, data...)
		badVersion[0] = 9
		require.ErrorIs(t, (&Game{}).UnmarshalBinary(badVersion), apperror.ErrCorruptRecord)

		// phase kind sits right after the version, two empty player strings and nine cells
		badPhase := append([]byte{}, data...)
		badPhase[1+2+2+9] = 7
		require.ErrorIs(t, (&Game{}).UnmarshalBinary(badPhase), apperror.ErrCorruptRecord)
	})
}
