package entity

// Transfer is an instruction for the custody collaborator: move Amount of Asset from the
// account owned by From to the account owned by To, signed by Authority.
type Transfer struct {
	Asset     Asset    `json:"asset"`
	Amount    uint64   `json:"amount"`
	From      Identity `json:"from"`
	To        Identity `json:"to"`
	Authority Identity `json:"authority"`
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
)

// Settlement describes how a finished game pays out.
type Settlement struct {
	GameID       string     `json:"game_id"`
	Outcome      Outcome    `json:"outcome"`
	Winner       Identity   `json:"winner,omitempty"`
	Transfers    []Transfer `json:"transfers"`
	RentReceiver Identity   `json:"rent_receiver"`
}
