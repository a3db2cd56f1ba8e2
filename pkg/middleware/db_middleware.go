package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/constants"
)

// txWriter buffers the handler's response so the transaction outcome can
// still change it: nothing reaches the client before Commit succeeds.
type txWriter struct {
	header http.Header
	buf    bytes.Buffer
	status int
}

func newTxWriter() *txWriter {
	return &txWriter{header: make(http.Header)}
}

func (w *txWriter) Header() http.Header {
	return w.header
}

func (w *txWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *txWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.buf.Write(b)
}

func (w *txWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *txWriter) flushTo(dst http.ResponseWriter) {
	for k, vs := range w.header {
		for _, v := range vs {
			dst.Header().Add(k, v)
		}
	}
	dst.WriteHeader(w.Status())
	_, _ = dst.Write(w.buf.Bytes())
}

// WithTransaction opens one transaction per request. The handler's response
// is buffered and released only after the transaction settles: a success
// status commits first, an error status rolls back, and a failed commit
// discards the handler's response and answers 500 so the client never takes
// uncommitted state for applied. A transaction already present on the
// context is reused untouched.
func WithTransaction() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tx, ok := r.Context().Value(constants.TxKey).(pgx.Tx); ok && tx != nil {
				next.ServeHTTP(w, r)
				return
			}
			pool, err := composables.UsePool(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			tx, err := pool.Begin(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			buffered := newTxWriter()
			r = r.WithContext(composables.WithTx(r.Context(), tx))
			next.ServeHTTP(buffered, r)
			settleTx(r.Context(), tx, buffered, w)
		})
	}
}

// settleTx resolves the request transaction against the handler's status and
// releases the buffered response.
func settleTx(ctx context.Context, tx pgx.Tx, buffered *txWriter, w http.ResponseWriter) {
	if buffered.Status() >= http.StatusBadRequest {
		rollbackTx(ctx, tx)
		buffered.flushTo(w)
		return
	}
	if err := tx.Commit(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logTxError(ctx, err, "failed to commit transaction")
		rollbackTx(ctx, tx)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"storage failure"}`))
		return
	}
	buffered.flushTo(w)
}

func rollbackTx(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logTxError(ctx, err, "failed to rollback transaction")
	}
}

func logTxError(ctx context.Context, err error, msg string) {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		entry.WithError(err).Error(msg)
	}
}
