// Package bot turns chat messages into OCR job submissions and preference changes
package bot

import (
	"context"
	"fmt"
	"strings"

	"ocrjobs/internal/core/langs"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
	"ocrjobs/internal/services/ocrjobs/service"
)

// Chat is the transport surface the router replies through
type Chat interface {
	dom.Notifier
	Download(ctx context.Context, fileID, dir, name string) (string, error)
}

// Router handles one inbound message at a time
type Router struct {
	chat     Chat
	submit   dom.SubmitPort
	health   dom.HealthPort
	prefs    *service.Prefs
	spoolDir string
}

// New builds a Router
func New(chat Chat, submit dom.SubmitPort, health dom.HealthPort, prefs *service.Prefs, spoolDir string) *Router {
	return &Router{chat: chat, submit: submit, health: health, prefs: prefs, spoolDir: spoolDir}
}

const (
	msgStart = "Hi! Send me an image or PDF and I will extract the text for you. Use /help for more details."
	msgHelp  = "Instructions:\n" +
		"- Send an image (photo or screenshot) or a PDF.\n" +
		"- Use /language to set preferred OCR languages, e.g., /language en,ru,uz\n" +
		"- Use /settings to see your settings and /togglecloud to switch cloud OCR.\n" +
		"- The full text is attached as a .txt file.\n" +
		"Privacy: files are stored only temporarily and removed after processing."
	msgLanguageUsage  = "Usage: /language en,ru,uz"
	msgUnknownCommand = "Unknown command. Use /help."
	msgDownloadFailed = "Sorry, failed to download your file."
	msgSendFile       = "Send an image or a PDF to extract its text."
	msgPrefsFailed    = "Sorry, could not update your settings. Please try again later."
)

// Handle routes in to a command or to file intake
func (r *Router) Handle(ctx context.Context, in dom.Inbound) {
	ctx = logger.WithJob(ctx, "", in.RequesterID)
	switch {
	case in.Command != "":
		r.command(ctx, in)
	case in.File != nil:
		r.intake(ctx, in)
	default:
		r.reply(ctx, in.RequesterID, msgSendFile)
	}
}

func (r *Router) command(ctx context.Context, in dom.Inbound) {
	to := in.RequesterID
	switch in.Command {
	case "start":
		r.reply(ctx, to, msgStart)
	case "help":
		r.reply(ctx, to, msgHelp)
	case "language":
		codes := langs.Split(in.Args)
		if len(codes) == 0 {
			r.reply(ctx, to, msgLanguageUsage)
			return
		}
		set, err := r.prefs.SetLanguages(ctx, to, codes)
		if err != nil {
			logger.C(ctx).Info().Err(err).Msg("language update rejected")
			r.reply(ctx, to, fmt.Sprintf("%v\n%s", err, msgLanguageUsage))
			return
		}
		r.reply(ctx, to, "Languages set to: "+strings.Join(set, ", "))
	case "settings":
		o, err := r.prefs.Get(ctx, to)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Msg("prefs read failed")
		}
		r.reply(ctx, to, fmt.Sprintf("Cloud OCR is %s. Languages: %s. Use /togglecloud to switch.",
			onOff(o.UseCloudOCR), strings.Join(o.Languages, ", ")))
	case "togglecloud":
		on, err := r.prefs.ToggleCloud(ctx, to)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Msg("prefs write failed")
			r.reply(ctx, to, msgPrefsFailed)
			return
		}
		r.reply(ctx, to, fmt.Sprintf("Cloud OCR is now %s.", onOff(on)))
	case "health":
		n, err := r.health.QueueDepth(ctx)
		if err != nil {
			r.reply(ctx, to, "Health check failed: queue unavailable")
			return
		}
		r.reply(ctx, to, fmt.Sprintf("OK. Queue length: %d", n))
	default:
		r.reply(ctx, to, msgUnknownCommand)
	}
}

// intake downloads the upload and submits it; Submit owns the file from then on
func (r *Router) intake(ctx context.Context, in dom.Inbound) {
	log := logger.C(ctx)
	to := in.RequesterID

	path, err := r.chat.Download(ctx, in.File.ID, r.spoolDir, in.File.Name)
	if err != nil {
		log.Error().Err(err).Str("file_id", in.File.ID).Msg("download failed")
		r.reply(ctx, to, msgDownloadFailed)
		return
	}

	opts, err := r.prefs.Get(ctx, to)
	if err != nil {
		log.Warn().Err(err).Msg("prefs read failed, using defaults")
	}
	rc, err := r.submit.Submit(ctx, dom.Submission{
		RequesterID: to,
		FilePath:    path,
		FileName:    in.File.Name,
		MIME:        in.File.MIME,
		Options:     opts,
	})
	switch {
	case err == nil && rc.Cached:
		// the cached artifact was already delivered
	case err == nil:
		if in.File.Photo {
			r.reply(ctx, to, "Received photo. Queued for OCR.")
		} else {
			r.reply(ctx, to, fmt.Sprintf("Received %s. Queued for processing.", in.File.Name))
		}
		r.reply(ctx, to, fmt.Sprintf("Job queued (id=%s).", rc.JobID))
	case perr.IsCode(err, perr.ErrorCodeTooManyRequests):
		rem := 0
		if rl, ok := dom.AsRateLimit(err); ok {
			rem = rl.Remaining
		}
		r.reply(ctx, to, service.MsgRateLimited(rem))
	case perr.IsCode(err, perr.ErrorCodeInvalidArgument):
		r.reply(ctx, to, fmt.Sprintf("%v\n%s", perr.Root(err), msgLanguageUsage))
	case perr.IsCode(err, perr.ErrorCodeDownload):
		r.reply(ctx, to, msgDownloadFailed)
	default:
		log.Error().Err(err).Msg("submit failed")
		r.reply(ctx, to, service.MsgFailed)
	}
}

func (r *Router) reply(ctx context.Context, to, text string) {
	if err := r.chat.NotifyText(ctx, to, text); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("reply failed")
	}
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
