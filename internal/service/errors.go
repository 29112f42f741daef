package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/nurpe/sales-backoffice/internal/repository"
	"github.com/nurpe/sales-backoffice/internal/timeseries"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDateConflict     = timeseries.ErrDateConflict
	ErrAmbiguousPeriod  = timeseries.ErrAmbiguousPeriod
	ErrCannotRetire     = errors.New("cannot retire")
	ErrImmutable        = errors.New("record is immutable")
)

// BusinessError is a rule violation reported to the caller with a readable
// message and optional details.
type BusinessError struct {
	Err     error
	Message string
	Data    map[string]interface{}
}

func (e *BusinessError) Error() string {
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func newBusinessError(err error, data map[string]interface{}, format string, args ...interface{}) *BusinessError {
	return &BusinessError{Err: err, Message: fmt.Sprintf(format, args...), Data: data}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var conflict *timeseries.ConflictError
	if errors.As(err, &conflict) {
		ids := make([]string, 0, len(conflict.IDs))
		for _, id := range conflict.IDs {
			ids = append(ids, id.String())
		}
		data := map[string]interface{}{"date": conflict.Date.Format(time.DateOnly), "records": ids}
		if errors.Is(conflict.Err, ErrAmbiguousPeriod) {
			return newBusinessError(ErrAmbiguousPeriod, data, "more than one record overlaps %s; fix the history first", conflict.Date.Format(time.DateOnly))
		}
		return newBusinessError(ErrDateConflict, data, "a record starting on or after %s already exists", conflict.Date.Format(time.DateOnly))
	}
	return err
}
