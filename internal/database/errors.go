package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505", "23503", "23502", "23514":
			return ErrorClassPermanent
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// IsUniqueViolation reports whether err is a violation of the named unique
// constraint. An empty name matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrPromoCodeNotFound = errors.New("promo code not found")
	ErrPageNotFound      = errors.New("page not found")
	ErrPaymentNotFound   = errors.New("payment not found")

	ErrDuplicatePhone   = errors.New("phone already registered")
	ErrDuplicateArticle = errors.New("article already exists")
	ErrDuplicateCode    = errors.New("promo code already exists")
	ErrDuplicateSlug    = errors.New("page slug already exists")

	ErrInsufficientStock = errors.New("insufficient stock")

	ErrAlreadyPaid     = errors.New("order already paid")
	ErrPaymentConflict = errors.New("payment state conflict")

	ErrLockTimeout = errors.New("lock timeout")
)
