package service

import (
	"fmt"
	"strings"

	"ocrjobs/internal/core/textclean"
)

// user facing texts
const (
	MsgCachedFound   = "Found cached result; sending..."
	MsgStarting      = "Starting OCR processing..."
	MsgFailed        = "Sorry, processing failed. Please try again later."
	CaptionCached    = "Cached OCR result"
	CaptionFullText  = "Full extracted text"
	msgNoText        = "(no text recognized)"
	partialCharLimit = 300
	summaryCharLimit = 400
)

// MsgDeferred tells the requester the job went back to the queue
func MsgDeferred(maxJobs int, delaySeconds int) string {
	return fmt.Sprintf("Too many concurrent jobs (>%d). Requeued in %ds.", maxJobs, delaySeconds)
}

// MsgRateLimited is the reply for a rejected submission
func MsgRateLimited(remaining int) string {
	return fmt.Sprintf("Rate limit exceeded. Try again in 60 seconds. Remaining this minute: %d", remaining)
}

// MsgProgress reports a rendered page, one based
func MsgProgress(page, total int) string {
	return fmt.Sprintf("Processing page %d/%d...", page, total)
}

// MsgPartial previews a finished page range
func MsgPartial(from, to int, text string) string {
	return fmt.Sprintf("Partial result pages %d-%d:\n%s", from, to, textclean.Truncate(text, partialCharLimit))
}

// MsgSummary is the inline completion message
func MsgSummary(text string) string {
	s := strings.TrimSpace(textclean.Truncate(text, summaryCharLimit))
	if s == "" {
		s = msgNoText
	}
	return "Done. Summary:\n" + s
}
