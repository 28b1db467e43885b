package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	pollTimeoutSec = 30
	baseDelay      = time.Second
	maxDelay       = 15 * time.Second
	idleDelay      = 200 * time.Millisecond
)

// sleep waits for d or until ctx ends; a seam for tests
var sleep = func(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// retryDelayFromError honours Telegram flood control hints and backs off on network trouble
func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return baseDelay
}

// Poll long polls for updates and passes each inbound message to handle, in order,
// until ctx ends. Errors from the Bot API are retried with a bounded delay.
func (c *Client) Poll(ctx context.Context, handle func(context.Context, dom.Inbound)) error {
	log := logger.Named("telegram")
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeoutSec
		updates, err := c.api.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn().Err(err).Dur("retry_in", d).Msg("polling failed")
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if in, ok := ToInbound(upd); ok {
				handle(ctx, in)
			}
		}
		if len(updates) == 0 {
			sleep(ctx, idleDelay)
		}
	}
}

// ToInbound extracts the parts of upd the OCR bot acts on
func ToInbound(upd tgbotapi.Update) (dom.Inbound, bool) {
	m := upd.Message
	if m == nil || m.Chat == nil {
		return dom.Inbound{}, false
	}
	in := dom.Inbound{
		RequesterID: strconv.FormatInt(m.Chat.ID, 10),
		Text:        m.Text,
	}
	if m.IsCommand() {
		in.Command = m.Command()
		in.Args = strings.TrimSpace(m.CommandArguments())
	}
	switch {
	case m.Document != nil:
		in.File = &dom.FileRef{ID: m.Document.FileID, Name: m.Document.FileName, MIME: m.Document.MimeType}
	case len(m.Photo) > 0:
		// the last size is the largest
		p := m.Photo[len(m.Photo)-1]
		in.File = &dom.FileRef{ID: p.FileID, Name: "photo_" + p.FileUniqueID + ".jpg", MIME: "image/jpeg", Photo: true}
	}
	return in, true
}
