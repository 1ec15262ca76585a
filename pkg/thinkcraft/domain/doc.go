// Package domain holds the building blocks shared by the aggregates:
// the embeddable AggregateRoot with its pending-event buffer, and the
// validation helpers value objects are built from.
//
// A value object is a struct with one unexported field and a validating
// constructor:
//
//	type Title struct{ value string }
//
//	func NewTitle(raw string) (Title, error) {
//	    v, err := domain.Text("title", raw, domain.TextRule{Max: 200})
//	    if err != nil {
//	        return Title{}, err
//	    }
//	    return Title{value: v}, nil
//	}
//
// Enumerations are string types validated with ParseEnum, which returns
// *errors.InvalidEnumValueError for unknown input.
//
// Aggregate operations follow one order: check preconditions, mutate,
// then Record the event. A failed operation leaves both state and buffer
// untouched.
package domain
