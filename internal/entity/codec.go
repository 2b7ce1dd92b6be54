package entity

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

const recordVersion byte = 1

// MarshalBinary packs the record into its persisted form:
//
//	version | player0 | player1 | 9 cells row-major | phase kind | phase payload | asset | amount
//
// Strings are prefixed with a big-endian uint16 length. The phase payload is one
// index byte for a turn, the winner string for a finished game and empty otherwise.
// The storage handle (ID) is not part of the encoding.
func (that *Game) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 128)
	out = append(out, recordVersion)

	var err error
	for _, player := range that.Players {
		if out, err = appendString16(out, string(player)); err != nil {
			return nil, fmt.Errorf("failed to encode player: %w", err)
		}
	}

	for _, row := range that.Board {
		for _, cell := range row {
			out = append(out, byte(cell))
		}
	}

	out = append(out, byte(that.Phase.Kind))
	switch that.Phase.Kind {
	case PhaseTurn:
		out = append(out, that.Phase.Index)
	case PhaseOver:
		if out, err = appendString16(out, string(that.Phase.Winner)); err != nil {
			return nil, fmt.Errorf("failed to encode winner: %w", err)
		}
	case PhaseUnaccepted, PhaseDraw:
	default:
		return nil, fmt.Errorf("%w: unknown phase %d", apperror.ErrCorruptRecord, that.Phase.Kind)
	}

	if out, err = appendString16(out, string(that.StakeAsset)); err != nil {
		return nil, fmt.Errorf("failed to encode asset: %w", err)
	}

	out = binary.BigEndian.AppendUint64(out, that.StakeAmount)

	return out, nil
}

// UnmarshalBinary restores a record written by MarshalBinary. ID is left as is.
func (that *Game) UnmarshalBinary(data []byte) error {
	r := &reader{b: data}

	if version := r.u8(); version != recordVersion {
		return fmt.Errorf("%w: unsupported version %d", apperror.ErrCorruptRecord, version)
	}

	var decoded Game
	decoded.ID = that.ID

	for i := range decoded.Players {
		decoded.Players[i] = Identity(r.str())
	}

	for row := range decoded.Board {
		for col := range decoded.Board[row] {
			cell := Symbol(r.u8())
			if cell > SymbolO {
				return fmt.Errorf("%w: invalid cell %d", apperror.ErrCorruptRecord, cell)
			}
			decoded.Board[row][col] = cell
		}
	}

	switch kind := PhaseKind(r.u8()); kind {
	case PhaseUnaccepted:
		decoded.Phase = Unaccepted()
	case PhaseTurn:
		index := r.u8()
		if index > 1 {
			return fmt.Errorf("%w: invalid turn index %d", apperror.ErrCorruptRecord, index)
		}
		decoded.Phase = Turn(index)
	case PhaseDraw:
		decoded.Phase = Draw()
	case PhaseOver:
		decoded.Phase = Over(Identity(r.str()))
	default:
		return fmt.Errorf("%w: unknown phase %d", apperror.ErrCorruptRecord, kind)
	}

	decoded.StakeAsset = Asset(r.str())
	decoded.StakeAmount = r.u64()

	if r.err != nil {
		return r.err
	}

	if r.i != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", apperror.ErrCorruptRecord, len(data)-r.i)
	}

	*that = decoded

	return nil
}

func appendString16(out []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, fmt.Errorf("string of %d bytes is too long", len(s))
	}

	out = binary.BigEndian.AppendUint16(out, uint16(len(s)))
	return append(out, s...), nil
}

// reader walks an encoded record and remembers the first overflow.
type reader struct {
	b   []byte
	i   int
	err error
}

func (that *reader) need(n int) bool {
	if that.err != nil {
		return false
	}
	if that.i+n > len(that.b) {
		that.err = fmt.Errorf("%w: unexpected end of data", apperror.ErrCorruptRecord)
		return false
	}
	return true
}

func (that *reader) u8() byte {
	if !that.need(1) {
		return 0
	}
	v := that.b[that.i]
	that.i++
	return v
}

func (that *reader) u64() uint64 {
	if !that.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(that.b[that.i:])
	that.i += 8
	return v
}

func (that *reader) str() string {
	if !that.need(2) {
		return ""
	}
	n := int(binary.BigEndian.Uint16(that.b[that.i:]))
	that.i += 2

	if !that.need(n) {
		return ""
	}
	s := string(that.b[that.i : that.i+n])
	that.i += n
	return s
}
