package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

const BoardSize = 3

// Identity is the account owner address of a participant or of the escrow authority.
type Identity string

// Asset identifies the fungible token a game is staked in.
type Asset string

type Symbol uint8

const (
	EmptyCell Symbol = iota
	SymbolX
	SymbolO
)

func (that Symbol) String() string {
	switch that {
	case SymbolX:
		return "X"
	case SymbolO:
		return "O"
	default:
		return ""
	}
}

func (that Symbol) MarshalJSON() ([]byte, error) {
	return []byte(`"` + that.String() + `"`), nil
}

// symbolFor maps a player index to its mark. Index 0 always plays X.
func symbolFor(index uint8) Symbol {
	if index == 0 {
		return SymbolX
	}
	return SymbolO
}

type Board [BoardSize][BoardSize]Symbol

// WinLines lists every row, then every column, then both diagonals.
var WinLines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Game is the persisted record of one escrowed match.
type Game struct {
	ID          string      `json:"id"`
	Players     [2]Identity `json:"players"`
	Board       Board       `json:"board"`
	Phase       Phase       `json:"phase"`
	StakeAsset  Asset       `json:"stake_asset"`
	StakeAmount uint64      `json:"stake_amount"`
}

// Initiator is the player that created the game and moves first.
func (that *Game) Initiator() Identity {
	return that.Players[0]
}

// Acceptor is the player that has to fund the second stake.
func (that *Game) Acceptor() Identity {
	return that.Players[1]
}

// Play marks the tile at (row, col) for the caller. The record is left untouched when any check fails.
func (that *Game) Play(caller Identity, row, col uint8) error {
	var mover uint8

	switch that.Phase.Kind {
	case PhaseTurn:
		mover = that.Phase.Index
	case PhaseUnaccepted:
		return apperror.ErrUnacceptedGame
	case PhaseDraw, PhaseOver:
		return apperror.ErrGameAlreadyCompleted
	default:
		return fmt.Errorf("%w: phase %d", apperror.ErrCorruptRecord, that.Phase.Kind)
	}

	if caller != that.Players[mover] {
		return apperror.ErrNotAuthorized
	}

	if row >= BoardSize || col >= BoardSize {
		return fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidTile, row, col)
	}

	if that.Board[row][col] != EmptyCell {
		return apperror.ErrTileAlreadyTaken
	}

	that.Board[row][col] = symbolFor(mover)
	that.Phase = NextPhase(that.Board, that.Players, mover)

	return nil
}

// NextPhase evaluates the board after a move made by the player at index mover.
// The first completed line in scan order decides the winner.
func NextPhase(board Board, players [2]Identity, mover uint8) Phase {
	for _, line := range WinLines {
		a := board[line[0][0]][line[0][1]]
		b := board[line[1][0]][line[1][1]]
		c := board[line[2][0]][line[2][1]]

		if a != EmptyCell && a == b && b == c {
			if a == SymbolX {
				return Over(players[0])
			}
			return Over(players[1])
		}
	}

	// the game continues while any tile is free
	for _, row := range board {
		for _, cell := range row {
			if cell == EmptyCell {
				return Turn((mover + 1) % 2)
			}
		}
	}

	return Draw()
}

// Filled returns the number of marked tiles.
func (that Board) Filled() int {
	n := 0
	for _, row := range that {
		for _, cell := range row {
			if cell != EmptyCell {
				n++
			}
		}
	}
	return n
}
