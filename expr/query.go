package expr

import "strings"

// Query selects the records of Table for which Filter evaluates to true,
// optionally grouping them by the value of GroupBy. A nil Filter selects
// every record.
type Query struct {
	Table   string
	Filter  Expr
	GroupBy Expr
}

// CheckFilter returns a *TypeMismatchError if the filter's static type is
// known and is not Bool.
func (q *Query) CheckFilter(ctx *TyCtx) error {
	if q.Filter == nil {
		return nil
	}
	ty, ok := q.Filter.Ty(ctx)
	if ok && !ty.Equal(tyBool) {
		want := tyBool
		return &TypeMismatchError{Found: ty, Expected: &want}
	}
	return nil
}

func (q *Query) String() string {
	var buf strings.Builder
	buf.WriteString("query ")
	buf.WriteString(q.Table)
	if q.Filter != nil {
		buf.WriteString(" where ")
		buf.WriteString(q.Filter.String())
	}
	if q.GroupBy != nil {
		buf.WriteString(" group_by ")
		buf.WriteString(q.GroupBy.String())
	}
	return buf.String()
}
