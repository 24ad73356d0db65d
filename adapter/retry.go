package adapter

import "time"

// DefaultBackoff is the delay before the first publish retry. It doubles on
// every further attempt.
const DefaultBackoff = 500 * time.Millisecond

// DefaultRetries is the retry count used when none is configured.
const DefaultRetries = 3
