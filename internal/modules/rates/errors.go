// README: Rate module sentinel errors.
package rates

import "errors"

var (
	ErrNotFound     = errors.New("rate record not found")
	ErrOverlap      = errors.New("rate table overlaps an existing table")
	ErrSegmentTaken = errors.New("an enabled rate plan already uses this segment")
	ErrInvalid      = errors.New("invalid rate data")
)
