package regalloc

import "errors"

// ErrDuplicateRange is returned by Allocator.Run when two input ranges of
// the same register class live over exactly coinciding intervals. Such
// ranges cannot both be tracked by the interval index, so they are rejected
// at the boundary before any allocation state mutates.
var ErrDuplicateRange = errors.New("duplicate live range interval")
