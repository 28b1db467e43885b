// Package bind decodes JSON request bodies and validates them with
// go-playground/validator, reporting failures as perr errors.
package bind

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	setupOnce sync.Once
	valid     *validator.Validate
	trans     ut.Translator
)

// shared returns the process wide validator, building it on first use.
// Messages are english and name fields by their json tag.
func shared() (*validator.Validate, ut.Translator) {
	setupOnce.Do(func() {
		loc := en.New()
		trans, _ = ut.New(loc, loc).GetTranslator("en")

		valid = validator.New(validator.WithRequiredStructEnabled())
		valid.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(valid, trans)

		// the stock min/max messages talk about "characters" or "items"
		for tag, msg := range map[string]string{
			"min": "{0} must be at least {1}",
			"max": "{0} must be at most {1}",
		} {
			_ = valid.RegisterTranslation(tag, trans, addMsg(tag, msg), render(tag, true))
		}
	})
	return valid, trans
}

func addMsg(tag, msg string) validator.RegisterTranslationsFunc {
	return func(t ut.Translator) error { return t.Add(tag, msg, true) }
}

func render(tag string, withParam bool) validator.TranslationFunc {
	return func(t ut.Translator, fe validator.FieldError) string {
		params := []string{fe.Field()}
		if withParam {
			params = append(params, fe.Param())
		}
		m, _ := t.T(tag, params...)
		return m
	}
}

// RegisterValidation adds a custom tag; msg is its english message with {0} for the field
func RegisterValidation(tag, msg string, fn validator.Func) error {
	v, t := shared()
	if err := v.RegisterValidation(tag, fn); err != nil {
		return err
	}
	return v.RegisterTranslation(tag, t, addMsg(tag, msg), render(tag, false))
}

// JSONOptions tunes ParseJSON. The zero value means no size limit, unknown
// fields accepted and empty bodies rejected.
type JSONOptions struct {
	MaxBytes        int64
	DisallowUnknown bool
	AllowEmptyBody  bool
}

var defaultJSON = JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}

// ParseJSON decodes one JSON value from the body into T and validates it.
// An empty body is fine for GET, HEAD, DELETE and OPTIONS.
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var dst T
	o := defaultJSON
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(body, o.MaxBytes)
	}
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		switch {
		case o.AllowEmptyBody:
			return dst, nil
		case r.Method == http.MethodGet, r.Method == http.MethodHead,
			r.Method == http.MethodDelete, r.Method == http.MethodOptions:
			return dst, nil
		}
		return dst, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&dst); err != nil {
		var zero T
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		var zero T
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Validate(dst); err != nil {
		var zero T
		return zero, err
	}
	return dst, nil
}

// Validate checks v's struct tags. The first failing field becomes a
// ErrorCodeValidation error carrying that field's json name.
func Validate(v any) error {
	val, t := shared()
	err := val.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		logger.Get().Error().Err(err).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	fe := verrs[0]
	return perr.WithField(perr.New(perr.ErrorCodeValidation, fe.Translate(t)), fe.Field())
}
