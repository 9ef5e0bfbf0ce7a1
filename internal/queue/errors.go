package queue

import (
	"errors"
	"strings"

	"github.com/reelforge/ingest-worker/api/types"
)

// ErrJobNotFound is returned when a job ID is not in the store.
var ErrJobNotFound = errors.New("job not found")

// UserFacingMessage converts a processing failure into the string stored on
// a failed job. Typed collaborator errors render from their tag; untyped
// errors fall back to substring matching against known phrases.
func UserFacingMessage(err error) string {
	var pe *types.ProcessingError
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Instagram post"):
		return "Instagram posts are not supported yet. Please use a reel URL instead."
	case strings.Contains(msg, "not supported"), strings.Contains(msg, "unsupported"):
		return msg
	default:
		return "Processing failed. Please try again."
	}
}
