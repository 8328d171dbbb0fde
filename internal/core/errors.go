package core

import "errors"

// ErrPageNotFound means the upstream page does not exist or the title was
// rejected. Terminal for the queue entry, never retried.
var ErrPageNotFound = errors.New("page not found")

// ErrGenerationFailed means the first-pass retry budget was exhausted.
// Distinct from an empty FAQ list, which is a valid outcome.
var ErrGenerationFailed = errors.New("faq generation failed")
