package types

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
	// CommonFilterOperatorOr matches when any of Filters matches.
	CommonFilterOperatorOr CommonFilterOperator = "or"
)

var ErrInvalidFilter = errors.New("invalid filter")

// CommonFilter is a client supplied list condition. Field is a column name
// and must pass Validate before Build sees it.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
	Filters  []CommonFilter       `json:"filters"`
}

// Validate checks the field against allowed and the value count against the
// operator, recursing into or-groups.
func (f *CommonFilter) Validate(allowed map[string]bool) error {
	if f.Operator == CommonFilterOperatorOr {
		if len(f.Filters) == 0 {
			return fmt.Errorf("%w: empty or group", ErrInvalidFilter)
		}
		for i := range f.Filters {
			if err := f.Filters[i].Validate(allowed); err != nil {
				return err
			}
		}
		return nil
	}
	if !allowed[f.Field] {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, f.Field)
	}
	want := 1
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq, CommonFilterOperatorLt,
		CommonFilterOperatorLte, CommonFilterOperatorGt, CommonFilterOperatorGte:
	case CommonFilterOperatorRange:
		want = 2
	case CommonFilterOperatorDateRange:
		if _, _, err := f.dateBounds(); err != nil {
			return err
		}
		return nil
	case CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: %s needs values", ErrInvalidFilter, f.Field)
		}
		return nil
	default:
		return fmt.Errorf("%w: operator %q", ErrInvalidFilter, f.Operator)
	}
	if len(f.Values) != want {
		return fmt.Errorf("%w: %s %s takes %d value(s)", ErrInvalidFilter, f.Field, f.Operator, want)
	}
	return nil
}

// dateBounds returns [from, to). A date-only upper bound includes that whole day.
func (f *CommonFilter) dateBounds() (time.Time, time.Time, error) {
	if len(f.Values) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date_range takes 2 values", ErrInvalidFilter)
	}
	from, _, err := parseFilterTime(f.Values[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, dateOnly, err := parseFilterTime(f.Values[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func parseFilterTime(v any) (time.Time, bool, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false, fmt.Errorf("%w: date_range values must be strings", ErrInvalidFilter)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: bad date %q", ErrInvalidFilter, s)
	}
	return t, true, nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if f.Operator == CommonFilterOperatorOr {
		exprs := make([]clause.Expression, 0, len(f.Filters))
		for i := range f.Filters {
			exprs = append(exprs, &f.Filters[i])
		}
		clause.Or(exprs...).Build(builder)
		return
	}
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: clause.Column{Name: f.Field}, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(
			clause.Gte{Column: clause.Column{Name: f.Field}, Value: f.Values[0]},
			clause.Lte{Column: clause.Column{Name: f.Field}, Value: f.Values[1]},
		).Build(builder)
	case CommonFilterOperatorDateRange:
		from, to, err := f.dateBounds()
		if err != nil {
			_ = builder.AddError(err)
			return
		}
		clause.And(
			clause.Gte{Column: clause.Column{Name: f.Field}, Value: from},
			clause.Lt{Column: clause.Column{Name: f.Field}, Value: to},
		).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: clause.Column{Name: f.Field}, Values: f.Values}.Build(builder)
	default:
		return
	}
}
