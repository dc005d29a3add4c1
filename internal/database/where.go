package database

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder assembles a parameterized WHERE clause. Conditions are ANDed
// in the order they are added and placeholders are numbered from $1.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

func (wb *WhereBuilder) add(format string, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf(format, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// Add adds "column = value". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.add(column+" = $%d", value)
}

// AddContains adds a case-insensitive substring match. LIKE wildcards in
// value match literally.
func (wb *WhereBuilder) AddContains(column, value string) {
	if value == "" {
		return
	}
	wb.add(column+` ILIKE $%d ESCAPE '\'`, "%"+escapeLike(value)+"%")
}

// AddTimestampRange bounds column by from and to, inclusive. A nil bound is
// left open.
func (wb *WhereBuilder) AddTimestampRange(column string, from, to *time.Time) {
	if from != nil {
		wb.add(column+" >= $%d", *from)
	}
	if to != nil {
		wb.add(column+" <= $%d", *to)
	}
}

// NextArgIndex is the placeholder number the next argument will take.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause with a leading " WHERE", or "" and nil args when
// no condition was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
