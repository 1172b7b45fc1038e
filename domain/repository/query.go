// Package repository holds the option-based query vocabulary shared by every
// store. Stores translate a Query into SQL; domain code only composes options.
package repository

import "fmt"

// Option applies a modification to a Query.
type Option func(Query) Query

// Query holds conditions, ordering, and pagination for store lookups.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
	params     map[string]any
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns a copy of the query conditions.
func (q Query) Conditions() []Condition {
	out := make([]Condition, len(q.conditions))
	copy(out, q.conditions)
	return out
}

// Orders returns a copy of the sort clauses.
func (q Query) Orders() []Order {
	out := make([]Order, len(q.orders))
	copy(out, q.orders)
	return out
}

// LimitValue returns the limit (0 means no limit).
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the offset.
func (q Query) OffsetValue() int { return q.offset }

// Param retrieves a parameter by key.
func (q Query) Param(key string) (any, bool) {
	v, ok := q.params[key]
	return v, ok
}

// Operator is the comparison a Condition applies.
type Operator string

// Supported operators.
const (
	OpEqual     Operator = "="
	OpIn        Operator = "IN"
	OpGreater   Operator = ">"
	OpGreaterEq Operator = ">="
	OpLess      Operator = "<"
	OpLessEq    Operator = "<="
	OpIsNotNull Operator = "IS NOT NULL"
)

// Condition represents a single column comparison.
type Condition struct {
	field string
	op    Operator
	value any
}

// Field returns the condition column.
func (c Condition) Field() string { return c.field }

// Operator returns the comparison operator.
func (c Condition) Operator() Operator { return c.op }

// Value returns the comparison value (nil for unary operators).
func (c Condition) Value() any { return c.value }

// In reports whether this is an IN condition.
func (c Condition) In() bool { return c.op == OpIn }

// Unary reports whether the operator takes no value.
func (c Condition) Unary() bool { return c.op == OpIsNotNull }

// String returns a readable representation.
func (c Condition) String() string {
	if c.Unary() {
		return fmt.Sprintf("%s %s", c.field, c.op)
	}
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
}

// Order is one sort clause.
type Order struct {
	field     string
	ascending bool
}

// Field returns the order column.
func (o Order) Field() string { return o.field }

// Ascending returns true for ASC, false for DESC.
func (o Order) Ascending() bool { return o.ascending }

func withOp(field string, op Operator, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, op: op, value: value})
		return q
	}
}

// WithCondition adds a field = value condition.
// Domain packages build their typed options on top of this.
func WithCondition(field string, value any) Option {
	return withOp(field, OpEqual, value)
}

// WithConditionIn adds a field IN (values) condition.
func WithConditionIn(field string, values any) Option {
	return withOp(field, OpIn, values)
}

// WithConditionCompare adds a field <op> value condition.
func WithConditionCompare(field string, op Operator, value any) Option {
	return withOp(field, op, value)
}

// WithNotNull requires the field to be set.
func WithNotNull(field string) Option {
	return withOp(field, OpIsNotNull, nil)
}

// WithID filters by the "id" column.
func WithID(id int64) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids []int64) Option {
	return WithConditionIn("id", ids)
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOffset sets the result offset.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = n
		return q
	}
}

// WithOrderAsc adds ascending ordering on a field.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: true})
		return q
	}
}

// WithOrderDesc adds descending ordering on a field.
func WithOrderDesc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field})
		return q
	}
}

// WithParam stores an arbitrary key-value pair on the query.
func WithParam(key string, value any) Option {
	return func(q Query) Query {
		if q.params == nil {
			q.params = make(map[string]any)
		}
		q.params[key] = value
		return q
	}
}
