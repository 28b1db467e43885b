package telegram

import (
	"context"

	perr "ocrjobs/internal/platform/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifyText sends text, split into several messages when it exceeds the Bot API limit
func (c *Client) NotifyText(ctx context.Context, requesterID, text string) error {
	id, err := chatID(requesterID)
	if err != nil {
		return err
	}
	for _, part := range chunk(text, MaxMessageRunes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.api.Send(tgbotapi.NewMessage(id, part)); err != nil {
			return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "telegram: send message"), "notify")
		}
	}
	return nil
}

// NotifyArtifact uploads the file at path as a document
func (c *Client) NotifyArtifact(ctx context.Context, requesterID, path, caption string) error {
	id, err := chatID(requesterID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(id, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := c.api.Send(doc); err != nil {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "telegram: send document"), "notify")
	}
	return nil
}

// chunk splits s into pieces of at most n runes, preferring to cut at a newline
func chunk(s string, n int) []string {
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	var out []string
	for len(r) > n {
		cut := n
		for i := n - 1; i > n/2; i-- {
			if r[i] == '\n' {
				cut = i + 1
				break
			}
		}
		out = append(out, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
