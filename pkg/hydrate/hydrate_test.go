package hydrate

import (
	"testing"

	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var partnerColumns = []string{
	// business partner block
	"id", "object_code", "object_name",
	// category block
	"id", "object_code", "object_name",
	// address block
	"id", "street", "city",
}

func newPartnerAssembler(t *testing.T) *Assembler[*datamodel.BusinessPartner] {
	splitter, err := NewRowSplitter(partnerColumns, "id", "id")
	require.NoError(t, err)
	return &Assembler[*datamodel.BusinessPartner]{
		Splitter: splitter,
		RootKey:  func(v Values) any { return v.Int("id") },
		BuildRoot: func(v Values) (*datamodel.BusinessPartner, error) {
			p := &datamodel.BusinessPartner{}
			p.Id = v.Int("id")
			p.ObjectCode = v.String("object_code")
			p.ObjectName = v.String("object_name")
			return p, nil
		},
		Attach: func(p *datamodel.BusinessPartner, block int, v Values) error {
			switch block {
			case 1:
				if p.Category == nil {
					c := &datamodel.Category{}
					c.Id = v.Int("id")
					c.ObjectCode = v.String("object_code")
					c.ObjectName = v.String("object_name")
					p.Category = c
				}
			case 2:
				a := &datamodel.PartnerAddress{}
				a.Id = v.Int("id")
				a.Street = v.String("street")
				a.City = v.String("city")
				p.Addresses = append(p.Addresses, a)
			}
			return nil
		},
	}
}

func TestSplitterRejectsMissingSplitColumn(t *testing.T) {
	_, err := NewRowSplitter([]string{"id", "name"}, "missing")
	assert.Error(t, err)
}

func TestSplitterRejectsOutOfOrderSplit(t *testing.T) {
	// The second split column must lie to the right of the first.
	_, err := NewRowSplitter([]string{"id", "a", "split_b", "b"}, "split_b", "split_b")
	assert.Error(t, err)
}

func TestAllNullRelatedBlockStaysAbsent(t *testing.T) {
	a := newPartnerAssembler(t)

	rows := [][]any{
		{1, "BP-1", "Acme", 9, "CAT-9", "Wholesale", nil, nil, nil},
	}
	roots, err := a.Assemble(rows)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	// First related block materialized, second absent per LEFT JOIN miss.
	require.NotNil(t, roots[0].Category)
	assert.Equal(t, "CAT-9", roots[0].Category.ObjectCode)
	assert.Nil(t, roots[0].Addresses)
}

func TestOneToManyGrouping(t *testing.T) {
	a := newPartnerAssembler(t)

	rows := [][]any{
		{1, "BP-1", "Acme", 9, "CAT-9", "Wholesale", 100, "Main St 1", "Berlin"},
		{1, "BP-1", "Acme", 9, "CAT-9", "Wholesale", 101, "Dock Rd 2", "Hamburg"},
		{2, "BP-2", "Globex", nil, nil, nil, 102, "Pier 5", "Bremen"},
	}
	roots, err := a.Assemble(rows)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	acme := roots[0]
	assert.Equal(t, "BP-1", acme.ObjectCode)
	require.NotNil(t, acme.Category)
	require.Len(t, acme.Addresses, 2)
	assert.Equal(t, "Berlin", acme.Addresses[0].City)
	assert.Equal(t, "Hamburg", acme.Addresses[1].City)

	globex := roots[1]
	assert.Nil(t, globex.Category)
	require.Len(t, globex.Addresses, 1)
	assert.Equal(t, "Bremen", globex.Addresses[0].City)
}

func TestSplitRowLengthMismatch(t *testing.T) {
	splitter, err := NewRowSplitter(partnerColumns, "id", "id")
	require.NoError(t, err)
	_, err = splitter.Split([]any{1, "x"})
	assert.Error(t, err)
}

func TestValuesConversions(t *testing.T) {
	v := Values{
		columns: []string{"i32", "i64", "f32", "s", "b", "missing_t"},
		vals:    []any{int32(7), int64(9), float32(1.5), "txt", true, nil},
	}
	assert.Equal(t, 7, v.Int("i32"))
	assert.Equal(t, 9, v.Int("i64"))
	assert.Equal(t, 1.5, v.Float("f32"))
	assert.Equal(t, "txt", v.String("s"))
	assert.True(t, v.Bool("b"))
	assert.True(t, v.Time("missing_t").IsZero())
	assert.Nil(t, v.Get("unknown"))
}
