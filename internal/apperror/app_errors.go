package apperror

import "errors"

// game errors.
var (
	ErrZeroStakeAmount      = errors.New("stake amount for a game can not be zero")
	ErrStakeTooLarge        = errors.New("stake amount is too large to be paid out")
	ErrSamePlayers          = errors.New("both players in a game can not be the same")
	ErrNotAuthorized        = errors.New("user not authorized to perform the action")
	ErrUnacceptedGame       = errors.New("game has not been accepted by the second player")
	ErrGameAlreadyAccepted  = errors.New("can not accept a game more than once")
	ErrGameAlreadyCompleted = errors.New("game has already been completed")
	ErrGameNotCompleted     = errors.New("moves left in the game")
	ErrInvalidTile          = errors.New("tile position is out of bounds")
	ErrTileAlreadyTaken     = errors.New("tile has already been marked")
)

// collaborator errors.
var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrCorruptRecord     = errors.New("corrupt game record")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount: must be positive and fit the ledger")
	ErrBalanceOverflow   = errors.New("balance would exceed the ledger limit")
	ErrInvalidAuthority  = errors.New("transfer authority does not own the source account")
	ErrUnauthenticated   = errors.New("caller is not authenticated")
)
