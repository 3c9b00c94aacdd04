package apperror

import "errors"

var (
	ErrMoveOutOfRange   = errors.New("move is out of history range")
	ErrCorruptedHistory = errors.New("history is corrupted")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrInvalidCellValue = errors.New("invalid cell value")
	ErrUnknownSortOrder = errors.New("unknown sort order")
)
