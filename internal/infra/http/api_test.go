package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/warebase/backoffice/internal/domain/ledger"
)

func TestWriteErrorMapping(t *testing.T) {
	a := &API{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cases := []struct {
		err        error
		wantStatus int
	}{
		{&ledger.ValidationError{Op: "reserve", Err: ledger.ErrInsufficientAvailable}, 422},
		{ledger.ErrLockTimeout, 503},
		{errors.New("boom"), 500},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		a.writeError(rec, c.err)
		if rec.Code != c.wantStatus {
			t.Errorf("writeError(%v) status = %d, want %d", c.err, rec.Code, c.wantStatus)
		}
	}
}

func TestLockTimeoutResponseIsRetryable(t *testing.T) {
	a := &API{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	rec := httptest.NewRecorder()
	a.writeError(rec, ledger.ErrLockTimeout)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("lock timeout response must carry Retry-After")
	}
}
