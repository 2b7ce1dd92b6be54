package entity

import (
	"errors"
	"testing"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"pgregory.net/rapid"
)

// TestPlayAppendOnlyProperty drives random move attempts, legal or not, and checks that
// a failed move leaves the record untouched while a successful one fills exactly one tile.
func TestPlayAppendOnlyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		game := &Game{
			Players:     [2]Identity{alice, bob},
			Phase:       Turn(0),
			StakeAsset:  "usdc",
			StakeAmount: 1,
		}
		callers := []Identity{alice, bob, "mallory"}

		attempts := rapid.IntRange(1, 40).Draw(t, "attempts")
		for i := 0; i < attempts; i++ {
			caller := rapid.SampledFrom(callers).Draw(t, "caller")
			row := uint8(rapid.IntRange(0, 3).Draw(t, "row"))
			col := uint8(rapid.IntRange(0, 3).Draw(t, "col"))

			before := *game
			err := game.Play(caller, row, col)

			if err != nil {
				if *game != before {
					t.Fatalf("failed move %v mutated the record", err)
				}
				if before.Phase.IsTerminal() && !errors.Is(err, apperror.ErrGameAlreadyCompleted) {
					t.Fatalf("move after %s returned %v", before.Phase, err)
				}
				continue
			}

			changed := 0
			for r := range game.Board {
				for c := range game.Board[r] {
					if game.Board[r][c] == before.Board[r][c] {
						continue
					}
					changed++
					if before.Board[r][c] != EmptyCell {
						t.Fatalf("tile (%d,%d) was overwritten", r, c)
					}
					if r != int(row) || c != int(col) {
						t.Fatalf("tile (%d,%d) changed on a move to (%d,%d)", r, c, row, col)
					}
				}
			}
			if changed != 1 {
				t.Fatalf("expected exactly one tile to change, got %d", changed)
			}
			if game.Board[row][col] != symbolFor(before.Phase.Index) {
				t.Fatalf("tile holds %s for mover %d", game.Board[row][col], before.Phase.Index)
			}
		}
	})
}

// TestFullGamesTerminateProperty plays random legal games to the end.
func TestFullGamesTerminateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		game := &Game{Players: [2]Identity{alice, bob}, Phase: Turn(0)}

		tiles := make([][2]uint8, 0, 9)
		for r := uint8(0); r < BoardSize; r++ {
			for c := uint8(0); c < BoardSize; c++ {
				tiles = append(tiles, [2]uint8{r, c})
			}
		}
		order := rapid.Permutation(tiles).Draw(t, "order")

		for _, tile := range order {
			if game.Phase.IsTerminal() {
				break
			}
			if err := game.Play(game.Players[game.Phase.Index], tile[0], tile[1]); err != nil {
				t.Fatalf("legal move failed: %v", err)
			}
		}

		if !game.Phase.IsTerminal() {
			t.Fatalf("game did not finish after every tile was played: %s", game.Phase)
		}
		if game.Phase.Kind == PhaseDraw && game.Board.Filled() != 9 {
			t.Fatalf("draw declared with %d tiles filled", game.Board.Filled())
		}
		if game.Phase.Kind == PhaseOver && game.Phase.Winner != alice && game.Phase.Winner != bob {
			t.Fatalf("winner %q is not a participant", game.Phase.Winner)
		}
	})
}
