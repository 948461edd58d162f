package validators

import (
	"errors"

	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/viewer"
)

const MaxPageSize = 200

var (
	ErrInvalidDateRange = viewer.ErrInvalidDateRange
	ErrInvalidPageSize  = errors.New("page_size out of range")
	ErrInvalidPage      = errors.New("page must be positive")
)

func ValidateFilter(f viewer.FilterState) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ActionKind != "" {
		if _, err := domain.ParseActionKind(string(f.ActionKind)); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePage accepts zero values, which mean the defaults.
func ValidatePage(page, size int) error {
	if page < 0 {
		return ErrInvalidPage
	}
	if size < 0 || size > MaxPageSize {
		return ErrInvalidPageSize
	}
	return nil
}
