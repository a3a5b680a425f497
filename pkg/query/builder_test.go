package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const searchTemplate = `SELECT /**select**/ FROM business_partner bp /**join**/ /**where**/ /**orderby**/ /**window**/`

func TestRenderAllFragments(t *testing.T) {
	b := NewBuilder().
		Select("bp.id").
		Select("bp.object_name").
		LeftJoin("category c ON c.id = bp.category_id").
		Where("bp.is_deleted = FALSE").
		Where("bp.object_name ILIKE '%' || ? || '%'", "acme").
		OrderBy("bp.object_name").
		OrderBy("bp.id").
		Window(10, 20)

	sql, args := b.Render(searchTemplate)

	assert.Equal(t,
		"SELECT bp.id, bp.object_name FROM business_partner bp "+
			"LEFT JOIN category c ON c.id = bp.category_id "+
			"WHERE (bp.is_deleted = FALSE) AND (bp.object_name ILIKE '%' || $1 || '%') "+
			"ORDER BY bp.object_name, bp.id "+
			"LIMIT $2 OFFSET $3",
		sql)
	assert.Equal(t, []any{"acme", int32(10), int32(20)}, args)
}

func TestRenderUnsetMarkersAreEmpty(t *testing.T) {
	b := NewBuilder().Select("id")

	sql, args := b.Render(`SELECT /**select**/ FROM t /**join**/ /**where**/ /**orderby**/ /**window**/`)

	assert.Equal(t, "SELECT id FROM t    ", sql)
	assert.Empty(t, args)
}

func TestRenderCountAndDataShareWhere(t *testing.T) {
	b := NewBuilder().
		Select("i.id").
		Where("i.workflow_status = ?", "DRAFT").
		Where("i.partner_id = ?", 12).
		OrderBy("i.invoice_date DESC").
		Window(25, 0)

	dataSQL, dataArgs := b.Render(`SELECT /**select**/ FROM invoice i /**where**/ /**orderby**/ /**window**/`)
	countSQL, countArgs := b.Render(`SELECT COUNT(*) FROM invoice i /**where**/`)

	assert.Contains(t, dataSQL, "WHERE (i.workflow_status = $1) AND (i.partner_id = $2)")
	assert.Contains(t, countSQL, "WHERE (i.workflow_status = $1) AND (i.partner_id = $2)")
	assert.Equal(t, []any{"DRAFT", 12, int32(25), int32(0)}, dataArgs)
	assert.Equal(t, []any{"DRAFT", 12}, countArgs)
}

func TestRenderArgOrderFollowsTemplate(t *testing.T) {
	// A join parameter must precede a where parameter when the join marker
	// appears first in the template.
	b := NewBuilder().
		AddJoin(Join{Clause: "LEFT JOIN trail_entry te ON te.linked_object_id = bp.id AND te.linked_object_type = ?", Args: []any{"BUSINESS-PARTNER"}}).
		AddPredicate(Predicate{Clause: "bp.id = ?", Args: []any{3}})

	sql, args := b.Render(`SELECT * FROM business_partner bp /**join**/ /**where**/`)

	assert.Contains(t, sql, "te.linked_object_type = $1")
	assert.Contains(t, sql, "bp.id = $2")
	assert.Equal(t, []any{"BUSINESS-PARTNER", 3}, args)
}

func TestRenderJoinOrderPreserved(t *testing.T) {
	b := NewBuilder().
		InnerJoin("invoice i ON i.partner_id = bp.id").
		LeftJoin("invoice_line il ON il.linked_object_id = i.id")

	sql, _ := b.Render(`SELECT * FROM business_partner bp /**join**/`)

	first := "INNER JOIN invoice i"
	second := "LEFT JOIN invoice_line il"
	assert.Less(t, indexOf(sql, first), indexOf(sql, second))
}

func TestHasPredicates(t *testing.T) {
	b := NewBuilder()
	assert.False(t, b.HasPredicates())
	b.Where("x = ?", 1)
	assert.True(t, b.HasPredicates())
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
