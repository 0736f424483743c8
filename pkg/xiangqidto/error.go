package xiangqidto

// Error codes carried by DomainError.
const (
	CodeNotFound    = "not_found"
	CodeIllegalMove = "illegal_move"
	CodeBadInput    = "bad_input"
	CodeGameOver    = "game_over"
	CodeLimit       = "limit"
	CodeHistory     = "history"
	CodeBook        = "book"
	CodeConflict    = "conflict"
	CodeInternal    = "internal"

	CodeUpgradeRequired = "upgrade_required"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "xiangqi service error"
}
