// Package query composes parameterized SQL statements from independently
// appended fragments and computes join-safe pagination windows.
package query

import (
	"sort"
	"strconv"
	"strings"
)

// Template markers replaced by Render. A marker whose fragment category is
// empty renders as an empty string, never as a syntax error.
const (
	MarkerSelect  = "/**select**/"
	MarkerJoin    = "/**join**/"
	MarkerWhere   = "/**where**/"
	MarkerOrderBy = "/**orderby**/"
	MarkerWindow  = "/**window**/"
)

// Predicate is one WHERE fragment. Placeholders are written as '?' and
// rewritten to positional parameters at render time. Multiple predicates
// are ANDed.
type Predicate struct {
	Clause string
	Args   []any
}

// Join is one JOIN fragment. Order of addition is preserved and must match
// alias dependency order.
type Join struct {
	Clause string
	Args   []any
}

// Order is one ORDER BY term; multiple orderings apply left to right as tiebreaks.
type Order struct {
	Term string
}

type fragment struct {
	text string
	args []any
}

// Builder accumulates fragments and renders them into templates. The same
// builder instance rendered against a count template and a data template
// produces identical WHERE clauses for both, which pagination correctness
// depends on.
type Builder struct {
	selects []string
	joins   []fragment
	where   []fragment
	order   []string
	window  *fragment
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddPredicate appends a WHERE fragment. Callers only add a predicate when
// its triggering filter argument is present, so absent filters contribute no
// clause at all.
func (b *Builder) AddPredicate(p Predicate) *Builder {
	b.where = append(b.where, fragment{text: p.Clause, args: p.Args})
	return b
}

// Where is shorthand for AddPredicate.
func (b *Builder) Where(clause string, args ...any) *Builder {
	return b.AddPredicate(Predicate{Clause: clause, Args: args})
}

// AddJoin appends a join fragment in dependency order.
func (b *Builder) AddJoin(j Join) *Builder {
	b.joins = append(b.joins, fragment{text: j.Clause, args: j.Args})
	return b
}

// LeftJoin is shorthand for AddJoin with a LEFT JOIN clause.
func (b *Builder) LeftJoin(clause string, args ...any) *Builder {
	return b.AddJoin(Join{Clause: "LEFT JOIN " + clause, Args: args})
}

// InnerJoin is shorthand for AddJoin with an INNER JOIN clause.
func (b *Builder) InnerJoin(clause string, args ...any) *Builder {
	return b.AddJoin(Join{Clause: "INNER JOIN " + clause, Args: args})
}

// AddOrdering appends an ORDER BY term.
func (b *Builder) AddOrdering(o Order) *Builder {
	b.order = append(b.order, o.Term)
	return b
}

// OrderBy is shorthand for AddOrdering.
func (b *Builder) OrderBy(term string) *Builder {
	return b.AddOrdering(Order{Term: term})
}

// Select appends a projection column for the /**select**/ marker.
func (b *Builder) Select(column string) *Builder {
	b.selects = append(b.selects, column)
	return b
}

// Window sets the LIMIT/OFFSET fragment. Count templates simply omit the
// /**window**/ marker, so the window contributes no parameters there.
func (b *Builder) Window(limit, offset int32) *Builder {
	b.window = &fragment{text: "LIMIT ? OFFSET ?", args: []any{limit, offset}}
	return b
}

// HasPredicates reports whether any WHERE fragment was added.
func (b *Builder) HasPredicates() bool {
	return len(b.where) > 0
}

// HasOrdering reports whether any ORDER BY term was added.
func (b *Builder) HasOrdering() bool {
	return len(b.order) > 0
}

// Render substitutes the accumulated fragments into the template's markers
// and returns the final statement plus its parameter list. '?' placeholders
// are rewritten to $1..$n in order of appearance; the template itself must
// not contain '?' outside of fragments.
func (b *Builder) Render(template string) (string, []any) {
	sections := []struct {
		marker string
		text   string
		args   []any
	}{
		{MarkerSelect, strings.Join(b.selects, ", "), nil},
		{MarkerJoin, b.joinText(), b.joinArgs()},
		{MarkerWhere, b.whereText(), b.whereArgs()},
		{MarkerOrderBy, b.orderText(), nil},
		{MarkerWindow, b.windowText(), b.windowArgs()},
	}

	// Parameters must follow the order in which their sections appear in the
	// template, not the order the sections were defined in.
	type hit struct {
		pos     int
		section int
	}
	var hits []hit
	for i, s := range sections {
		if pos := strings.Index(template, s.marker); pos >= 0 {
			hits = append(hits, hit{pos: pos, section: i})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var args []any
	for _, h := range hits {
		args = append(args, sections[h.section].args...)
	}

	sql := template
	for _, s := range sections {
		sql = strings.ReplaceAll(sql, s.marker, s.text)
	}

	return rewritePlaceholders(sql), args
}

func (b *Builder) joinText() string {
	parts := make([]string, 0, len(b.joins))
	for _, j := range b.joins {
		parts = append(parts, j.text)
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) joinArgs() []any {
	var args []any
	for _, j := range b.joins {
		args = append(args, j.args...)
	}
	return args
}

func (b *Builder) whereText() string {
	if len(b.where) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.where))
	for _, w := range b.where {
		parts = append(parts, "("+w.text+")")
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

func (b *Builder) whereArgs() []any {
	var args []any
	for _, w := range b.where {
		args = append(args, w.args...)
	}
	return args
}

func (b *Builder) orderText() string {
	if len(b.order) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(b.order, ", ")
}

func (b *Builder) windowText() string {
	if b.window == nil {
		return ""
	}
	return b.window.text
}

func (b *Builder) windowArgs() []any {
	if b.window == nil {
		return nil
	}
	return b.window.args
}

func rewritePlaceholders(sql string) string {
	var out strings.Builder
	out.Grow(len(sql))
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(n))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
