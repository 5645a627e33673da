package repositories

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleVersion is returned when an order changed since it was read.
	ErrStaleVersion = errors.New("record was modified by another transaction")
	// ErrStockUnavailable is returned when a stock adjustment would go below zero.
	ErrStockUnavailable = errors.New("stock unavailable")
)

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
