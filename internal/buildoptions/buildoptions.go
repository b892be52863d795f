// Package buildoptions holds the debug switches used across the allocator.
// Instead of defining them in each file, we define them here so that we can
// quickly iterate on debugging without spending "where do we have debug
// logging?" time.
package buildoptions

import "github.com/xyproto/env/v2"

// These must be disabled by default. Both are read once at process start.
var (
	// RegAllocLoggingEnabled turns on per-decision logging of the main loop
	// (queue pops, assignments, evictions, splits) and the interval index
	// dumps.
	RegAllocLoggingEnabled = env.Bool("REGALLOC_LOGGING")
	// RegAllocValidationEnabled turns on internal invariant checking. A
	// violation panics with a "BUG:" message.
	RegAllocValidationEnabled = env.Bool("REGALLOC_VALIDATION")
)
