package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[error]int{
		TooManyRequestsf("slow down"):                      http.StatusTooManyRequests,
		New(ErrorCodeValidation, "languages: bad"):         http.StatusBadRequest,
		JSONErrf("unexpected EOF"):                         http.StatusBadRequest,
		Unauthorizedf("missing token"):                     http.StatusUnauthorized,
		New(ErrorCodeUnavailable, "queue down"):            http.StatusServiceUnavailable,
		Downloadf("telegram: get file"):                    http.StatusBadGateway,
		Backendf("vision: quota"):                          http.StatusBadGateway,
		Processingf("render page 2"):                       http.StatusInternalServerError,
		PanicErrf("panic recovered"):                       http.StatusInternalServerError,
		stderrs.New("foreign"):                             http.StatusInternalServerError,
		New(ErrorCode(999), "from a newer peer"):           http.StatusInternalServerError,
		fmt.Errorf("outer: %w", New(ErrorCodeJSON, "bad")): http.StatusBadRequest,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", err, got, want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("exit status 1")
	err := Wrapf(cause, ErrorCodeProcessing, "pdftoppm: page %d", 4)
	if err.Error() != "pdftoppm: page 4: exit status 1" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !stderrs.Is(err, cause) || Root(fmt.Errorf("job 7: %w", err)) != cause {
		t.Fatal("cause not reachable")
	}
	if w := WireFrom(err); w.Message != "pdftoppm: page 4" || w.Code != ErrorCodeProcessing {
		t.Fatalf("wire = %+v", w)
	}

	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatal("nil *Error should print <nil>")
	}
}

func TestWithFieldAndOp(t *testing.T) {
	t.Parallel()

	base := Wrap(stderrs.New("dial tcp: timeout"), ErrorCodeDownload, "telegram: get file")
	tagged := WithOp(WithField(base, "file"), "fetch")

	w := WireFrom(tagged)
	if w.Field != "file" || w.Op != "fetch" || w.Code != ErrorCodeDownload {
		t.Fatalf("wire = %+v", w)
	}
	if OpOf(fmt.Errorf("job: %w", tagged)) != "fetch" {
		t.Fatal("op lost through wrapping")
	}
	if e, _ := As(base); e.Field() != "" || e.Op() != "" {
		t.Fatal("base was mutated")
	}

	foreign := stderrs.New("plain")
	if WithOp(foreign, "x") != foreign || WithField(foreign, "y") != foreign || OpOf(foreign) != "" {
		t.Fatal("foreign errors must pass through")
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	if WireFrom(nil) != (Wire{}) {
		t.Fatal("nil should be the zero wire")
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign = %+v", w)
	}
}
