package service

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// EscrowAuthority owns every escrow account. Its identity is derived, never chosen by a caller.
type EscrowAuthority struct {
	identity entity.Identity
}

// DeriveAuthority hashes the program id and seed into a stable identity.
func DeriveAuthority(programID, seed string) EscrowAuthority {
	h := sha256.New()
	h.Write([]byte(programID))
	h.Write([]byte{0})
	h.Write([]byte(seed))

	return EscrowAuthority{
		identity: entity.Identity("escrow:" + hex.EncodeToString(h.Sum(nil))),
	}
}

func (that EscrowAuthority) Identity() entity.Identity {
	return that.identity
}
