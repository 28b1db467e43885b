// Package http provides http transport for OCR job intake
package http

import (
	"crypto/subtle"
	"errors"
	"io"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"ocrjobs/internal/core/langs"
	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/modkit/swaggerkit"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	pnet "ocrjobs/internal/platform/net"
	"ocrjobs/internal/platform/net/http/bind"
	dom "ocrjobs/internal/services/ocrjobs/domain"

	"github.com/go-playground/validator/v10"
)

// Limits bounds uploads accepted over http
type Limits struct {
	MaxUploadBytes int64
	SpoolDir       string
	// APIToken, when set, is the bearer token required to submit jobs
	APIToken string
}

// SubmitForm is the multipart form of POST /jobs; the file travels in part "file"
type SubmitForm struct {
	RequesterID string `json:"requester_id" validate:"required,max=128"`
	Languages   string `json:"languages" validate:"omitempty,max=128"`
	UseCloudOCR *bool  `json:"use_cloud_ocr"`
}

// JobView is the response of POST /jobs
type JobView struct {
	JobID          string  `json:"job_id,omitempty"`
	Fingerprint    string  `json:"fingerprint"`
	Cached         bool    `json:"cached"`
	ResultLocation string  `json:"result_location,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// HealthView is the response of GET /jobs/health
type HealthView struct {
	Status     string `json:"status"`
	QueueDepth int    `json:"queue_depth"`
}

// PrefsBody is the body of PUT /prefs/{requester_id}; omitted fields keep their stored value
type PrefsBody struct {
	Languages   []string `json:"languages" validate:"omitempty,max=8,lang_codes"`
	UseCloudOCR *bool    `json:"use_cloud_ocr"`
}

// PrefsView is the response of the prefs routes
type PrefsView struct {
	RequesterID string   `json:"requester_id"`
	Languages   []string `json:"languages"`
	UseCloudOCR bool     `json:"use_cloud_ocr"`
}

// Ports are the service ports the routes call; a nil Prefs leaves the prefs routes unmounted
type Ports struct {
	Submit dom.SubmitPort
	Health dom.HealthPort
	Prefs  dom.PrefsPort
}

var registerLangCodes sync.Once

// Routes lists the operations Register mounts, relative to the module prefix
func Routes() []swaggerkit.Route {
	return []swaggerkit.Route{
		{Method: stdhttp.MethodPost, Path: "/jobs", Summary: "Submit an image or PDF for OCR", Tag: "ocr"},
		{Method: stdhttp.MethodGet, Path: "/jobs/health", Summary: "Queue health", Tag: "ocr"},
		{Method: stdhttp.MethodGet, Path: "/prefs/{requester_id}", Summary: "Stored recognition defaults of a requester", Tag: "ocr"},
		{Method: stdhttp.MethodPut, Path: "/prefs/{requester_id}", Summary: "Replace recognition defaults of a requester", Tag: "ocr"},
	}
}

// Register mounts the routes
func Register(r httpkit.Router, p Ports, lim Limits) {
	registerLangCodes.Do(func() {
		err := bind.RegisterValidation("lang_codes", "{0} contains an unknown language code", func(fl validator.FieldLevel) bool {
			codes, ok := fl.Field().Interface().([]string)
			if !ok {
				return false
			}
			_, err := langs.Normalize(codes)
			return err == nil
		})
		if err != nil {
			logger.Named("ocrjobs.http").Error().Err(err).Msg("register lang_codes validation")
		}
	})

	h := &handlers{submit: p.Submit, health: p.Health, prefs: p.Prefs, lim: lim}
	httpkit.Get(r, "/jobs/health", h.healthz)

	mount := func(rr httpkit.Router) {
		rr.Post("/jobs", httpkit.Handle(h.create))
		if h.prefs != nil {
			httpkit.Get(rr, "/prefs/{requester_id}", h.getPrefs)
			httpkit.PutJSON(rr, "/prefs/{requester_id}", h.putPrefs)
		}
	}
	if lim.APIToken == "" {
		mount(r)
		return
	}
	httpkit.Protected(r, httpkit.NewPortFunc(staticToken(lim.APIToken)), mount)
}

// staticToken accepts exactly one shared token; the caller is reported as "api"
func staticToken(want string) httpkit.TokenFunc {
	return func(got string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			return "", perr.Unauthorizedf("invalid token")
		}
		return "api", nil
	}
}

type handlers struct {
	submit dom.SubmitPort
	health dom.HealthPort
	prefs  dom.PrefsPort
	lim    Limits
}

// create spools the upload and submits it; 200 when served from cache, 202 when queued
func (h *handlers) create(r *stdhttp.Request) httpkit.Response {
	if h.lim.MaxUploadBytes > 0 {
		r.Body = stdhttp.MaxBytesReader(nil, r.Body, h.lim.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return httpkit.Error(perr.Wrap(err, perr.ErrorCodeValidation, "invalid multipart form"))
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form := SubmitForm{
		RequesterID: strings.TrimSpace(r.FormValue("requester_id")),
		Languages:   r.FormValue("languages"),
	}
	if v := r.FormValue("use_cloud_ocr"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return httpkit.Error(perr.WithField(perr.Newf(perr.ErrorCodeValidation, "use_cloud_ocr must be a boolean"), "use_cloud_ocr"))
		}
		form.UseCloudOCR = &b
	}
	if err := bind.Validate(form); err != nil {
		return httpkit.Error(err)
	}

	path, name, mime, err := h.spool(r)
	if err != nil {
		return httpkit.Error(err)
	}

	opts := dom.Options{Languages: langs.Split(form.Languages), UseCloudOCR: true}
	if form.UseCloudOCR != nil {
		opts.UseCloudOCR = *form.UseCloudOCR
	}
	rc, err := h.submit.Submit(r.Context(), dom.Submission{
		RequesterID: form.RequesterID,
		FilePath:    path,
		FileName:    name,
		MIME:        mime,
		Options:     opts,
	})
	if err != nil {
		resp := httpkit.Error(err)
		if rl, ok := dom.AsRateLimit(err); ok {
			resp.Header = stdhttp.Header{}
			resp.Header.Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
		}
		return resp
	}

	view := JobView{JobID: rc.JobID, Fingerprint: rc.Fingerprint, Cached: rc.Cached}
	if rc.Entry != nil {
		view.ResultLocation = rc.Entry.ResultLocation
		view.Confidence = rc.Entry.Confidence
		return httpkit.OK(view)
	}
	return httpkit.Accepted(view)
}

// spool copies the uploaded part to a file owned by the submission
func (h *handlers) spool(r *stdhttp.Request) (path, name, mime string, err error) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, stdhttp.ErrMissingFile) {
			return "", "", "", perr.WithField(perr.Newf(perr.ErrorCodeValidation, "file is required"), "file")
		}
		return "", "", "", perr.Wrap(err, perr.ErrorCodeValidation, "read upload")
	}
	defer func() { _ = f.Close() }()

	out, err := os.CreateTemp(h.lim.SpoolDir, "upload-*"+filepath.Ext(hdr.Filename))
	if err != nil {
		return "", "", "", perr.Wrap(err, perr.ErrorCodeUnavailable, "spool upload")
	}
	if _, err := io.Copy(out, f); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", "", "", perr.Wrap(err, perr.ErrorCodeDownload, "copy upload")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", "", "", perr.Wrap(err, perr.ErrorCodeUnavailable, "spool upload")
	}
	logger.C(r.Context()).Debug().Str("caller", pnet.Caller(r.Context())).Str("file", hdr.Filename).Int64("bytes", hdr.Size).Msg("upload spooled")
	return out.Name(), hdr.Filename, hdr.Header.Get("Content-Type"), nil
}

func (h *handlers) healthz(r *stdhttp.Request) (any, error) {
	n, err := h.health.QueueDepth(r.Context())
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "queue depth")
	}
	return HealthView{Status: "ok", QueueDepth: n}, nil
}

func requesterParam(r *stdhttp.Request) (string, error) {
	id := strings.TrimSpace(httpkit.Param(r, "requester_id"))
	if id == "" || len(id) > 128 {
		return "", perr.WithField(perr.Newf(perr.ErrorCodeValidation, "requester_id is required and at most 128 characters"), "requester_id")
	}
	return id, nil
}

func (h *handlers) getPrefs(r *stdhttp.Request) (any, error) {
	id, err := requesterParam(r)
	if err != nil {
		return nil, err
	}
	o, err := h.prefs.Get(r.Context(), id)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "load prefs")
	}
	return PrefsView{RequesterID: id, Languages: o.Languages, UseCloudOCR: o.UseCloudOCR}, nil
}

// putPrefs merges the body over the stored defaults
func (h *handlers) putPrefs(r *stdhttp.Request, in PrefsBody) (any, error) {
	id, err := requesterParam(r)
	if err != nil {
		return nil, err
	}
	o, err := h.prefs.Get(r.Context(), id)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "load prefs")
	}
	if in.Languages != nil {
		o.Languages = in.Languages
	}
	if in.UseCloudOCR != nil {
		o.UseCloudOCR = *in.UseCloudOCR
	}
	if o, err = h.prefs.Set(r.Context(), id, o); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store prefs")
	}
	return PrefsView{RequesterID: id, Languages: o.Languages, UseCloudOCR: o.UseCloudOCR}, nil
}
