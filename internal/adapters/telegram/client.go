// Package telegram adapts the Telegram Bot API to the OCR job ports: it delivers
// notifications, fetches uploaded files and long polls for updates.
package telegram

import (
	"net/http"
	"strconv"
	"time"

	perr "ocrjobs/internal/platform/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageRunes is the Bot API limit on one text message
const MaxMessageRunes = 4096

// API is the part of *tgbotapi.BotAPI the adapter calls
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Client is a Bot API client bound to one bot token
type Client struct {
	api  API
	http *http.Client
}

// New logs in with token
func New(token string) (*Client, error) {
	if token == "" {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "telegram: empty bot token")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "telegram: login")
	}
	return NewWithAPI(bot, nil), nil
}

// NewWithAPI wraps an existing API; a nil httpc gets a client with a one minute timeout
func NewWithAPI(api API, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: time.Minute}
	}
	return &Client{api: api, http: httpc}
}

// chatID parses a requester id; requesters are Telegram chat ids
func chatID(requesterID string) (int64, error) {
	id, err := strconv.ParseInt(requesterID, 10, 64)
	if err != nil {
		return 0, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "telegram: requester is not a chat id"), "requester_id")
	}
	return id, nil
}
