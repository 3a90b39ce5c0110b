package store

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors returned by Store implementations. Callers branch on these
// with errors.Is instead of inspecting driver or gorm errors.
var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation indicates a unique key would be duplicated.
	ErrConstraintViolation = errors.New("constraint violation")
)

// translate maps gorm errors onto the store's sentinels. Errors it does not
// recognise are returned unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConstraintViolation
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	}
	return err
}
