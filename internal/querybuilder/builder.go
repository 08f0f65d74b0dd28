// Package querybuilder assembles parameterized SELECT statements for sqlite.
// It exists so the match query engine can compose its aggregated sub-views
// from static column manifests instead of string-interpolating aliases.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" = ?")
	*args = append(*args, c.value)
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) appendSQL(buf *strings.Builder, args *[]any) {
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}

	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("?")
		*args = append(*args, v)
	}
	buf.WriteString(")")
}

type exprCondition struct {
	expr string
	args []any
}

func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.expr)
	*args = append(*args, c.args...)
}

type orCondition struct {
	conditions []Condition
}

func Or(conditions ...Condition) Condition {
	return orCondition{conditions: conditions}
}

func (c orCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString("(")
	for i, cond := range c.conditions {
		if i > 0 {
			buf.WriteString(" OR ")
		}
		cond.appendSQL(buf, args)
	}
	buf.WriteString(")")
}

// Column describes one projected column of a view: the SQL expression and the
// output alias it is known by.
type Column struct {
	Name string
	Expr string
}

func (c Column) selectExpr() string {
	if c.Expr == c.Name {
		return c.Expr
	}
	return c.Expr + " AS " + c.Name
}

type selectItem struct {
	expr string
	args []any
}

type cte struct {
	name string
	sub  *SelectBuilder
}

type join struct {
	kind  string
	table string
	on    string
}

type SelectBuilder struct {
	ctes      []cte
	columns   []selectItem
	table     string
	fromSub   *SelectBuilder
	fromAlias string
	joins     []join
	where     []Condition
	groupBy   []string
	orderBy   []string
	limit     int
	offset    int
	hasLimit  bool
}

func Select(columns ...string) *SelectBuilder {
	b := &SelectBuilder{}
	for _, c := range columns {
		b.columns = append(b.columns, selectItem{expr: c})
	}
	return b
}

// Column adds a single projected expression; args fill `?` placeholders the
// expression carries (used for computed filter flags).
func (b *SelectBuilder) Column(expr string, args ...any) *SelectBuilder {
	b.columns = append(b.columns, selectItem{expr: expr, args: args})
	return b
}

// Columns projects every entry of a column manifest.
func (b *SelectBuilder) Columns(manifest []Column) *SelectBuilder {
	for _, c := range manifest {
		b.columns = append(b.columns, selectItem{expr: c.selectExpr()})
	}
	return b
}

// With registers a CTE; order of registration is preserved.
func (b *SelectBuilder) With(name string, sub *SelectBuilder) *SelectBuilder {
	b.ctes = append(b.ctes, cte{name: name, sub: sub})
	return b
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

// FromSelect selects from a subquery.
func (b *SelectBuilder) FromSelect(sub *SelectBuilder, alias string) *SelectBuilder {
	b.fromSub = sub
	b.fromAlias = alias
	return b
}

func (b *SelectBuilder) InnerJoin(table, on string) *SelectBuilder {
	b.joins = append(b.joins, join{kind: "INNER JOIN", table: table, on: on})
	return b
}

func (b *SelectBuilder) LeftJoin(table, on string) *SelectBuilder {
	b.joins = append(b.joins, join{kind: "LEFT JOIN", table: table, on: on})
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	b.hasLimit = true
	return b
}

func (b *SelectBuilder) Offset(offset int) *SelectBuilder {
	b.offset = offset
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	var buf strings.Builder
	var args []any
	if err := b.writeTo(&buf, &args); err != nil {
		return "", nil, err
	}
	return buf.String(), args, nil
}

func (b *SelectBuilder) writeTo(buf *strings.Builder, args *[]any) error {
	if len(b.columns) == 0 {
		return fmt.Errorf("select columns are required")
	}
	if b.table == "" && b.fromSub == nil {
		return fmt.Errorf("select table is required")
	}

	if len(b.ctes) > 0 {
		buf.WriteString("WITH ")
		for i, c := range b.ctes {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(c.name)
			buf.WriteString(" AS (")
			if err := c.sub.writeTo(buf, args); err != nil {
				return err
			}
			buf.WriteString(")")
		}
		buf.WriteString(" ")
	}

	buf.WriteString("SELECT ")
	for i, col := range b.columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(col.expr)
		*args = append(*args, col.args...)
	}

	buf.WriteString(" FROM ")
	if b.fromSub != nil {
		buf.WriteString("(")
		if err := b.fromSub.writeTo(buf, args); err != nil {
			return err
		}
		buf.WriteString(")")
		if b.fromAlias != "" {
			buf.WriteString(" ")
			buf.WriteString(b.fromAlias)
		}
	} else {
		buf.WriteString(b.table)
	}

	for _, j := range b.joins {
		buf.WriteString(" ")
		buf.WriteString(j.kind)
		buf.WriteString(" ")
		buf.WriteString(j.table)
		buf.WriteString(" ON ")
		buf.WriteString(j.on)
	}

	if len(b.where) > 0 {
		buf.WriteString(" WHERE ")
		for i, c := range b.where {
			if i > 0 {
				buf.WriteString(" AND ")
			}
			c.appendSQL(buf, args)
		}
	}

	if len(b.groupBy) > 0 {
		buf.WriteString(" GROUP BY ")
		buf.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.hasLimit {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
		if b.offset > 0 {
			buf.WriteString(" OFFSET ")
			buf.WriteString(strconv.Itoa(b.offset))
		}
	}

	return nil
}
