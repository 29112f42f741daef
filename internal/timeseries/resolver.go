// Package timeseries keeps effective-dated records of one scope from
// overlapping. A record is anything with a start date, a mutable end date and
// an immutable initial end date it can be restored to.
package timeseries

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDateConflict    = errors.New("date range conflict")
	ErrAmbiguousPeriod = errors.New("ambiguous overlapping periods")
)

// ConflictError carries the offending date and the records involved.
type ConflictError struct {
	Err  error
	Date time.Time
	IDs  []uuid.UUID
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("%s at %s (records: %s)", e.Err, e.Date.Format("2006-01-02"), strings.Join(ids, ", "))
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

type Record interface {
	RecordID() uuid.UUID
	Period() (start, end time.Time)
	BirthEnd() time.Time
	SetEnd(end time.Time)
	MarkDeleted(at time.Time)
	Deleted() bool
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuperseded
	OutcomeTruncated
	OutcomeRestored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeTruncated:
		return "truncated"
	case OutcomeRestored:
		return "restored"
	default:
		return "none"
	}
}

// Change describes what happened to the neighbouring record, if anything.
type Change[P Record] struct {
	Record  P
	Outcome Outcome
	OldEnd  time.Time
	NewEnd  time.Time
}

func (c Change[P]) Changed() bool {
	return c.Outcome != OutcomeNone
}

// CheckNoLaterConflict fails when any live record other than exclude starts on
// or after newStart.
func CheckNoLaterConflict[P Record](existing []P, newStart time.Time, exclude uuid.UUID) error {
	var ids []uuid.UUID
	var at time.Time
	for _, r := range existing {
		if r.Deleted() || r.RecordID() == exclude {
			continue
		}
		start, _ := r.Period()
		if start.Before(newStart) {
			continue
		}
		if len(ids) == 0 || start.Before(at) {
			at = start
		}
		ids = append(ids, r.RecordID())
	}
	if len(ids) > 0 {
		return &ConflictError{Err: ErrDateConflict, Date: at, IDs: ids}
	}
	return nil
}

// ResolveInsertConflict makes room for a record starting at newStart. The one
// live candidate that reaches newStart is logically deleted when it starts no
// earlier than newStart, otherwise its end is moved to the day before.
func ResolveInsertConflict[P Record](candidates []P, newStart, at time.Time) (Change[P], error) {
	live := make([]P, 0, len(candidates))
	for _, r := range candidates {
		if r.Deleted() {
			continue
		}
		if _, end := r.Period(); end.Before(newStart) {
			continue
		}
		live = append(live, r)
	}

	switch len(live) {
	case 0:
		return Change[P]{}, nil
	case 1:
	default:
		return Change[P]{}, ambiguous(live, newStart)
	}

	r := live[0]
	start, end := r.Period()
	if !start.Before(newStart) {
		r.MarkDeleted(at)
		return Change[P]{Record: r, Outcome: OutcomeSuperseded, OldEnd: end, NewEnd: end}, nil
	}
	newEnd := newStart.AddDate(0, 0, -1)
	r.SetEnd(newEnd)
	return Change[P]{Record: r, Outcome: OutcomeTruncated, OldEnd: end, NewEnd: newEnd}, nil
}

// ResolveDeleteRestore gives the predecessor of a removed record back its
// initial end date.
func ResolveDeleteRestore[P Record](candidates []P) (Change[P], error) {
	live := make([]P, 0, len(candidates))
	for _, r := range candidates {
		if !r.Deleted() {
			live = append(live, r)
		}
	}

	switch len(live) {
	case 0:
		return Change[P]{}, nil
	case 1:
	default:
		_, end := live[0].Period()
		return Change[P]{}, ambiguous(live, end)
	}

	r := live[0]
	_, end := r.Period()
	birth := r.BirthEnd()
	if birth.IsZero() || birth.Equal(end) {
		return Change[P]{Record: r}, nil
	}
	r.SetEnd(birth)
	return Change[P]{Record: r, Outcome: OutcomeRestored, OldEnd: end, NewEnd: birth}, nil
}

func ambiguous[P Record](records []P, at time.Time) error {
	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RecordID())
	}
	return &ConflictError{Err: ErrAmbiguousPeriod, Date: at, IDs: ids}
}
