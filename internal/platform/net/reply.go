package net

import (
	"net/http"

	perr "ocrjobs/internal/platform/errors"
)

// Wire is the error envelope written by middleware that runs before any handler
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
}

// Error builds the envelope for err; a nil err is a plain 200
func Error(err error, reqID string) (int, Wire) {
	status := perr.HTTPStatus(err)
	if err == nil {
		status = http.StatusOK
	}
	w := perr.WireFrom(err)
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		RequestID:  reqID,
	}
}
