package game

import (
	"errors"
	"fmt"
)

// ErrMatchNotFound is returned when an update targets a match id that does
// not exist.
var ErrMatchNotFound = errors.New("match not found")

// DuplicateMatchError reports a create/update that collided with the
// (video, start second) uniqueness constraint.
type DuplicateMatchError struct {
	ExternalVideoID string
	StartSec        int
}

func (e *DuplicateMatchError) Error() string {
	return fmt.Sprintf("match with video id (%s) and start time (%d) already exists", e.ExternalVideoID, e.StartSec)
}
