package xiangqidto

// Candidate is one opening-book move for the queried position.
type Candidate struct {
	Move     string  `json:"move"`
	Notation string  `json:"notation,omitempty"`
	Score    int     `json:"score"`
	Rank     int     `json:"rank"`
	Note     string  `json:"note,omitempty"`
	WinRate  float64 `json:"winrate"`
}

// BookResult is the opening-book answer for a match position.
type BookResult struct {
	MatchID    string      `json:"match_id"`
	Ply        int         `json:"ply"`
	Position   string      `json:"position"`
	Candidates []Candidate `json:"candidates"`
}

// ScoreResult is the book evaluation of one history position. Score is
// from the side to move at that position; WhiteScore is from red's side.
type ScoreResult struct {
	MatchID    string `json:"match_id"`
	Index      int    `json:"index"`
	Position   string `json:"position"`
	Turn       string `json:"turn"`
	Known      bool   `json:"known"`
	Score      int    `json:"score"`
	WhiteScore int    `json:"white_score"`
}
