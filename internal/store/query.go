package store

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator understood by WhereBuilder.
type Operator string

const (
	OpEqual Operator = "="
	OpILike Operator = "ILIKE"
	OpAny   Operator = "= ANY"
)

// LogicOperator joins a condition to the one before it.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Condition is a single WHERE predicate or a parenthesized group of them.
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
	Logic    LogicOperator
	Group    []Condition
}

// Eq creates an equality condition.
func Eq(column string, value interface{}) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value, Logic: LogicAnd}
}

// ILike creates a case-insensitive pattern condition.
func ILike(column string, pattern string) Condition {
	return Condition{Column: column, Operator: OpILike, Value: pattern, Logic: LogicAnd}
}

// Any matches column against any element of an array parameter.
func Any(column string, values interface{}) Condition {
	return Condition{Column: column, Operator: OpAny, Value: values, Logic: LogicAnd}
}

// Or joins cond to the preceding condition with OR.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Group wraps conditions in parentheses.
func Group(conditions ...Condition) Condition {
	return Condition{Group: conditions, Logic: LogicAnd}
}

// WhereBuilder renders conditions into a WHERE clause with numbered
// placeholders. Values are always bound as parameters.
type WhereBuilder struct {
	conditions []Condition
	paramStart int
}

// NewWhereBuilder creates a builder whose first placeholder is $1.
func NewWhereBuilder(conditions ...Condition) *WhereBuilder {
	return &WhereBuilder{conditions: conditions, paramStart: 1}
}

// Build generates the WHERE clause SQL and arguments.
func (w *WhereBuilder) Build() (string, []interface{}, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	sql, args, err := w.buildConditions(w.conditions, w.paramStart)
	if err != nil {
		return "", nil, err
	}

	return "WHERE " + sql, args, nil
}

func (w *WhereBuilder) buildConditions(conditions []Condition, paramStart int) (string, []interface{}, error) {
	var parts []string
	var args []interface{}
	paramNum := paramStart

	for i, cond := range conditions {
		if len(cond.Group) > 0 {
			groupSQL, groupArgs, err := w.buildConditions(cond.Group, paramNum)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+groupSQL+")")
			args = append(args, groupArgs...)
			paramNum += len(groupArgs)
		} else {
			condSQL, err := buildCondition(cond, paramNum)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, condSQL)
			args = append(args, cond.Value)
			paramNum++
		}

		if i < len(conditions)-1 {
			logic := conditions[i+1].Logic
			if logic == "" {
				logic = LogicAnd
			}
			parts[len(parts)-1] += " " + string(logic)
		}
	}

	return strings.Join(parts, " "), args, nil
}

func buildCondition(cond Condition, paramNum int) (string, error) {
	switch cond.Operator {
	case OpEqual, OpILike:
		return fmt.Sprintf("%s %s $%d", cond.Column, cond.Operator, paramNum), nil
	case OpAny:
		return fmt.Sprintf("%s = ANY($%d)", cond.Column, paramNum), nil
	default:
		return "", fmt.Errorf("unknown operator: %q", cond.Operator)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains turns keyword into a LIKE pattern matching it as a literal
// substring.
func Contains(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// keywordFilter is the search predicate: title OR body contains keyword.
func keywordFilter(keyword string) Condition {
	pattern := Contains(keyword)

	return Group(
		ILike("a.title", pattern),
		Or(ILike("a.body", pattern)),
	)
}

// Window is a LIMIT/OFFSET slice of an ordered result.
type Window struct {
	Limit  int
	Offset int
}

// Build renders the window with placeholders numbered from paramStart.
func (w Window) Build(paramStart int) (string, []interface{}) {
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramStart, paramStart+1), []interface{}{w.Limit, w.Offset}
}
