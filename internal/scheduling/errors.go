package scheduling

import "errors"

var (
	ErrInvalidInterval = errors.New("scheduling: invalid work interval")
	ErrInvalidDate     = errors.New("scheduling: invalid date")
)
