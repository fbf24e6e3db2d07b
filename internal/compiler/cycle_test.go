package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/ir"
)

func rel(parent, child string) ir.RelationshipDecl {
	return ir.RelationshipDecl{Parent: parent, ParentKey: "id", Child: child, ChildKey: parent + "_id"}
}

func cyclePlan(rels ...ir.RelationshipDecl) *ir.Plan {
	return &ir.Plan{
		Tables: []ir.TableDecl{
			{Name: "customer"}, {Name: "orders"}, {Name: "products"},
		},
		Relationships: rels,
	}
}

func TestAnalyzeCycles_NoRelationships(t *testing.T) {
	warnings := AnalyzeCycles(cyclePlan())
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}

func TestAnalyzeCycles_Star(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(cyclePlan(rel("customer", "orders"), rel("products", "orders"))))
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	warnings := AnalyzeCycles(cyclePlan(rel("customer", "customer")))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"customer", "customer"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Self-referencing")
}

func TestAnalyzeCycles_TwoTables(t *testing.T) {
	warnings := AnalyzeCycles(cyclePlan(rel("customer", "orders"), rel("orders", "customer")))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"customer", "orders", "customer"}, warnings[0].Path)
	assert.Equal(t, "Relationship cycle: customer → orders → customer", warnings[0].Message)
}

func TestAnalyzeCycles_Deterministic(t *testing.T) {
	plan := cyclePlan(rel("customer", "orders"), rel("orders", "products"), rel("products", "customer"))
	first := AnalyzeCycles(plan)
	require.Len(t, first, 1)
	assert.Len(t, first[0].Path, 4)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(plan))
	}
}
