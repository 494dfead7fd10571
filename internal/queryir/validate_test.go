package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rdfstore/internal/ir"
)

func iri(s string) Const { return Const{Term: ir.NewNamedNode("http://e/" + s)} }

func spo() Where {
	return Where{Blocks: []Block{{Patterns: []TriplePattern{{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")}}}}}
}

func TestValidateSelect_BoundProjection(t *testing.T) {
	result := Validate(Select{Projection: []Var{"s", "o"}, Where: spo(), Limit: NoLimit, Offset: NoLimit})
	assert.True(t, result.OK)
	assert.Empty(t, result.Warnings)
}

func TestValidateSelect_UnboundProjectionWarns(t *testing.T) {
	result := Validate(Select{Projection: []Var{"missing"}, Where: spo()})
	assert.True(t, result.OK)
	assert.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "?missing")
}

func TestValidateSelect_CountAliasCollision(t *testing.T) {
	result := Validate(Select{Count: &Count{Alias: "s"}, Where: spo()})
	assert.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "?s")
}

func TestValidate_ValuesWidth(t *testing.T) {
	w := spo()
	w.Values = []Values{{Vars: []Var{"s", "o"}, Rows: [][]ir.Term{{ir.NewLiteral("a")}}}}
	result := Validate(Ask{Where: w})
	assert.False(t, result.OK)
}

func TestValidateConstruct_TemplateVars(t *testing.T) {
	result := Validate(Construct{
		Template: []TriplePattern{{Subject: Var("s"), Predicate: iri("p"), Object: Var("x")}},
		Where:    spo(),
	})
	assert.True(t, result.OK)
	assert.Len(t, result.Warnings, 1)
}

func TestValidate_Nil(t *testing.T) {
	assert.False(t, Validate(nil).OK)
}

func TestValidateUpdate_BlankInDelete(t *testing.T) {
	blank := Const{Term: ir.NewBlankNode("b")}
	ops := []UpdateOp{
		InsertData{Quads: []ir.Quad{{Subject: ir.NewBlankNode("b"), Predicate: ir.NewNamedNode("http://e/p"), Object: ir.NewLiteral("x")}}},
		DeleteWhere{Patterns: []QuadPattern{{TriplePattern: TriplePattern{Subject: blank, Predicate: iri("p"), Object: Var("o")}}}},
	}
	result := ValidateUpdate(ops)
	assert.False(t, result.OK)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "operation 1")
}

func TestValidateUpdate_Modify(t *testing.T) {
	op := Modify{
		Delete: []QuadPattern{{TriplePattern: TriplePattern{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")}}},
		Insert: []QuadPattern{{TriplePattern: TriplePattern{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")}, Graph: Var("g")}},
		Where:  spo(),
	}
	result := ValidateUpdate([]UpdateOp{op})
	assert.True(t, result.OK)
	assert.Equal(t, []string{"operation 0 template variable ?g is never bound"}, result.Warnings)
}

func TestWhereVars_OrderAndHidden(t *testing.T) {
	w := Where{
		Blocks: []Block{
			{Graph: Var("g"), Patterns: []TriplePattern{{Subject: Var(HiddenVarPrefix + "b0"), Predicate: iri("p"), Object: Var("o")}}},
		},
		Values: []Values{{Vars: []Var{"o", "extra"}}},
	}
	assert.Equal(t, []Var{"g", Var(HiddenVarPrefix + "b0"), "o", "extra"}, w.Vars())
	assert.Equal(t, []Var{"g", "o", "extra"}, w.VisibleVars())
}
