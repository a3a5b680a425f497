package database

import (
	"github.com/omeid/pgerror"
	"go.uber.org/zap"
)

// ErrorHandling classifies and logs a Postgres failure, then hands the error
// back for the caller to propagate. Nothing is swallowed here; retry policy
// belongs to the caller.
func ErrorHandling(sqlStatement string, err error) error {
	if err == nil {
		return nil
	}
	if e := pgerror.ConnectionException(err); e != nil {
		RecordQuery("connection_failure")
		zap.S().Errorw(
			"PostgreSQL failed: ConnectionException",
			"error", err,
			"sqlStatement", sqlStatement,
		)
		return err
	}
	if e := pgerror.UniqueViolation(err); e != nil {
		RecordQuery("constraint_violation")
		zap.S().Errorw(
			"PostgreSQL failed: UniqueViolation",
			"error", err,
			"sqlStatement", sqlStatement,
		)
		return err
	}
	RecordQuery("failure")
	zap.S().Errorw(
		"PostgreSQL failed.",
		"error", err,
		"sqlStatement", sqlStatement,
	)
	return err
}

// IsConnectionError reports whether the failure is a connectivity loss, the
// class of error a caller may choose to retry.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return pgerror.ConnectionException(err) != nil
}
