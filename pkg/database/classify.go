package database

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// ClassifyError maps a raw pgx/network error into the apperr.Kind that
// pkg/retry uses to decide whether an operation is worth retrying.
// Connection-level failures — dial timeouts, refused or reset
// connections, PostgreSQL's own class-08 connection exceptions — are
// transient transport failures. Everything else (constraint
// violations, syntax errors, missing rows) is a genuine storage
// failure that retrying cannot fix.
func ClassifyError(err error) apperr.Kind {
	if err == nil {
		return apperr.KindInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return apperr.KindTimeout
		}
		return apperr.KindNetwork
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
		return apperr.KindNetwork
	}

	return apperr.KindStorage
}

// WrapError classifies err and wraps it with apperr, tagging op as the
// failed operation.
func WrapError(op string, err error) error {
	return apperr.Wrap(ClassifyError(err), op, err)
}
