package mysql

import (
	"errors"
	"fmt"
	"strings"

	"apparatus-lending/internal/domain/uow"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

var retryablePgCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

func classifyStorageError(err error) error {
	if err == nil || errors.Is(err, uow.ErrRetryable) {
		return err
	}
	if isRetryable(err) {
		return fmt.Errorf("%w: %w", uow.ErrRetryable, err)
	}
	return err
}

func isRetryable(err error) bool {
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgCodes[pgErr.Code]
		return ok
	}
	// sqlite reports busy/locked only through the message
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
