package datamodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChildPath(t *testing.T) {
	assert.Equal(t, "A", ChildPath("", "A"))
	assert.Equal(t, "A>B", ChildPath("A", "B"))
	assert.Equal(t, "A>B>C", ChildPath("A>B", "C"))
}

func TestWouldCreateCycle(t *testing.T) {
	// Re-parenting under the node itself is a cycle
	assert.True(t, WouldCreateCycle("A>B", "A>B"))
	// Re-parenting under a descendant is a cycle
	assert.True(t, WouldCreateCycle("A>B", "A>B>C"))
	assert.True(t, WouldCreateCycle("A>B", "A>B>C>D"))
	// Siblings and ancestors are fine
	assert.False(t, WouldCreateCycle("A>B", "A"))
	assert.False(t, WouldCreateCycle("A>B", "A>X"))
	// A sibling whose code merely shares a prefix is not a descendant
	assert.False(t, WouldCreateCycle("A>B", "A>BC"))
	// Unsaved node without a path cannot produce a cycle
	assert.False(t, WouldCreateCycle("", "A>B"))
}

func TestIsDescendantPath(t *testing.T) {
	assert.True(t, IsDescendantPath("A>B>C", "A>B"))
	assert.False(t, IsDescendantPath("A>B", "A>B"))
	assert.False(t, IsDescendantPath("A>BC", "A>B"))
}

func TestPathDepth(t *testing.T) {
	assert.Equal(t, 0, PathDepth(""))
	assert.Equal(t, 1, PathDepth("A"))
	assert.Equal(t, 3, PathDepth("A>B>C"))
}

func TestRecordLifecycleFlags(t *testing.T) {
	var p BusinessPartner
	assert.True(t, p.IsNew())
	p.SetId(42)
	assert.False(t, p.IsNew())
	assert.Equal(t, 42, p.GetId())

	assert.False(t, p.Deleted())
	p.MarkDeleted()
	assert.True(t, p.Deleted())
}

func TestSetOwner(t *testing.T) {
	var a PartnerAddress
	a.SetOwner(7, ObjectTypeBusinessPartner)
	assert.Equal(t, 7, a.LinkedObjectId)
	assert.Equal(t, ObjectTypeBusinessPartner, a.LinkedObjectType)
}
