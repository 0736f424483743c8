package xiangqidto

import "time"

// SquareView is one of the 90 squares of a rendered board.
type SquareView struct {
	Row        int      `json:"row"`
	Col        int      `json:"col"`
	Identifier string   `json:"identifier,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Side       string   `json:"side,omitempty"`
	Marks      []string `json:"marks,omitempty"`
}

// MatchState is the live state of a match.
type MatchState struct {
	ID               string       `json:"id"`
	White            string       `json:"white"`
	Black            string       `json:"black"`
	Status           string       `json:"status"`
	Turn             string       `json:"turn"`
	Ply              int          `json:"ply"`
	InCheck          bool         `json:"in_check"`
	Flipped          bool         `json:"flipped"`
	Encoding         string       `json:"encoding"`
	Position         string       `json:"position"`
	NotationPosition string       `json:"notation_position"`
	Moves            []string     `json:"moves"`
	Notations        []string     `json:"notations"`
	LastMove         string       `json:"last_move,omitempty"`
	Board            []SquareView `json:"board"`
}

// HistoryView is a browsed snapshot; Index ranges over 0..Max.
type HistoryView struct {
	MatchID          string       `json:"match_id"`
	Index            int          `json:"index"`
	Max              int          `json:"max"`
	Encoding         string       `json:"encoding"`
	Position         string       `json:"position"`
	NotationPosition string       `json:"notation_position"`
	Board            []SquareView `json:"board"`
}

// MatchSummary is one row of a match listing. Matches hosted only on
// another node have Local false and no live status.
type MatchSummary struct {
	ID        string    `json:"id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Origin    string    `json:"origin,omitempty"`
	Local     bool      `json:"local"`
	Status    string    `json:"status,omitempty"`
	Turn      string    `json:"turn,omitempty"`
	Ply       int       `json:"ply"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClickResult answers a board click. Move is set when the click completed
// a legal move; Played tells whether it was applied or only previewed.
type ClickResult struct {
	Move     string     `json:"move,omitempty"`
	Played   bool       `json:"played"`
	Selected string     `json:"selected,omitempty"`
	State    MatchState `json:"state"`
}
