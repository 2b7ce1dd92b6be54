package entity

import (
	"encoding/json"
	"fmt"
)

type PhaseKind uint8

const (
	PhaseUnaccepted PhaseKind = iota
	PhaseTurn
	PhaseDraw
	PhaseOver
)

var phaseNames = map[PhaseKind]string{
	PhaseUnaccepted: "unaccepted",
	PhaseTurn:       "turn",
	PhaseDraw:       "draw",
	PhaseOver:       "over",
}

func (that PhaseKind) String() string {
	if name, ok := phaseNames[that]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", uint8(that))
}

// ParsePhaseKind is the inverse of PhaseKind.String.
func ParsePhaseKind(name string) (PhaseKind, bool) {
	for kind, kindName := range phaseNames {
		if kindName == name {
			return kind, true
		}
	}
	return 0, false
}

// Phase is the lifecycle state of a game. Index is meaningful only for PhaseTurn,
// Winner only for PhaseOver.
type Phase struct {
	Kind   PhaseKind
	Index  uint8
	Winner Identity
}

func Unaccepted() Phase {
	return Phase{Kind: PhaseUnaccepted}
}

func Turn(index uint8) Phase {
	return Phase{Kind: PhaseTurn, Index: index}
}

func Draw() Phase {
	return Phase{Kind: PhaseDraw}
}

func Over(winner Identity) Phase {
	return Phase{Kind: PhaseOver, Winner: winner}
}

// IsTerminal reports whether the game can be settled.
func (that Phase) IsTerminal() bool {
	return that.Kind == PhaseDraw || that.Kind == PhaseOver
}

func (that Phase) String() string {
	switch that.Kind {
	case PhaseTurn:
		return fmt.Sprintf("turn{%d}", that.Index)
	case PhaseOver:
		return fmt.Sprintf("over{%s}", that.Winner)
	default:
		return that.Kind.String()
	}
}

type phaseJSON struct {
	Kind   string    `json:"kind"`
	Index  *uint8    `json:"index,omitempty"`
	Winner *Identity `json:"winner,omitempty"`
}

func (that Phase) MarshalJSON() ([]byte, error) {
	out := phaseJSON{Kind: that.Kind.String()}

	switch that.Kind {
	case PhaseTurn:
		index := that.Index
		out.Index = &index
	case PhaseOver:
		winner := that.Winner
		out.Winner = &winner
	case PhaseUnaccepted, PhaseDraw:
	}

	return json.Marshal(out)
}
