package base

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/uniquip/internal/apperror"
)

// Коды SQLSTATE, которые различает приложение
const (
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeUniqueViolation      = "23505"
	CodeExclusionViolation   = "23P01"
	CodeForeignKeyViolation  = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable true для ошибок, после которых транзакцию можно повторить
func IsRetryable(err error) bool {
	code := pgCode(err)
	return code == CodeSerializationFailure || code == CodeDeadlockDetected
}

// Classify переводит ошибку хранилища в apperror. Уже типизированные
// ошибки возвращаются как есть.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}

	switch pgCode(err) {
	case CodeUniqueViolation, CodeExclusionViolation:
		return apperror.Wrap(apperror.KindConflict, apperror.ErrConflict.Message, err)
	case CodeForeignKeyViolation:
		return apperror.Wrap(apperror.KindNotFound, "referenced record not found", err)
	case CodeSerializationFailure, CodeDeadlockDetected:
		return apperror.Wrap(apperror.KindConflict, apperror.ErrConflict.Message, err)
	}
	return apperror.Wrap(apperror.KindStorage, apperror.ErrStorage.Message, err)
}
