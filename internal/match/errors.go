package match

import (
	"errors"

	"github.com/park285/xiangqi-bot/internal/openingbook"
	"github.com/park285/xiangqi-bot/internal/xiangqi"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

// DomainError maps a manager error onto the shared error DTO.
func DomainError(err error) xiangqidto.DomainError {
	var (
		code      string
		retryable bool
	)
	switch {
	case errors.Is(err, ErrNotFound):
		code = xiangqidto.CodeNotFound
	case errors.Is(err, ErrLimit):
		code, retryable = xiangqidto.CodeLimit, true
	case errors.Is(err, ErrHistoryIndex):
		code = xiangqidto.CodeHistory
	case errors.Is(err, ErrOutOfSync):
		code = xiangqidto.CodeConflict
	case errors.Is(err, xiangqi.ErrGameOver):
		code = xiangqidto.CodeGameOver
	case errors.Is(err, ErrInvalidArgs),
		errors.Is(err, xiangqi.ErrMalformedCoordinate),
		errors.Is(err, xiangqi.ErrMalformedNotation),
		errors.Is(err, xiangqi.ErrAmbiguousNotation),
		errors.Is(err, xiangqi.ErrPieceNotFound):
		code = xiangqidto.CodeBadInput
	case errors.Is(err, openingbook.ErrInvalidPosition),
		errors.Is(err, openingbook.ErrMalformedAnswer),
		errors.Is(err, ErrNoBook):
		code = xiangqidto.CodeBook
	case errors.Is(err, ErrBookUnavailable):
		code, retryable = xiangqidto.CodeBook, true
	case isMoveError(err),
		errors.Is(err, xiangqi.ErrNotYourTurn),
		errors.Is(err, ErrNothingToUndo):
		code = xiangqidto.CodeIllegalMove
	default:
		code = xiangqidto.CodeInternal
	}
	return xiangqidto.DomainError{Code: code, Message: err.Error(), Retryable: retryable}
}

func isMoveError(err error) bool {
	var me *xiangqi.MoveError
	return errors.As(err, &me)
}
