package complexity

import (
	"testing"

	"hammy/internal/grammar"
)

// if (a && b) { ... } inside a function, built by hand
func handTree() *grammar.Node {
	L := grammar.Leaf
	N := grammar.NewNode
	cond := N("binary_expression", "a && b", 2, 2, L("identifier", "a", 2), L("&&", "&&", 2), L("identifier", "b", 2))
	inner := N("if_statement", "if (c) {}", 3, 3, L("if", "if", 3), L("identifier", "c", 3))
	outer := N("if_statement", "if (a && b) {...}", 2, 4, L("if", "if", 2), cond, N("statement_block", "{...}", 2, 4, inner))
	return N("function_declaration", "function f() {...}", 1, 5,
		L("function", "function", 1),
		L("identifier", "f", 1),
		N("statement_block", "{...}", 1, 5, outer),
	)
}

func TestCyclomatic_HandBuilt(t *testing.T) {
	// base 1 + outer if + && + inner if
	if got := Cyclomatic(handTree(), grammar.JavaScript); got != 4 {
		t.Errorf("Cyclomatic = %d, want 4", got)
	}
}

func TestCognitive_HandBuilt(t *testing.T) {
	// outer if 1, then && and the inner if at depth 1 cost 2 each
	if got := Cognitive(handTree(), grammar.JavaScript); got != 5 {
		t.Errorf("Cognitive = %d, want 5", got)
	}
}

func TestNonBooleanBinaryIgnored(t *testing.T) {
	n := grammar.NewNode("binary_expression", "a + b", 1, 1,
		grammar.Leaf("identifier", "a", 1), grammar.Leaf("+", "+", 1), grammar.Leaf("identifier", "b", 1))
	if got := Cyclomatic(n, grammar.Go); got != 1 {
		t.Errorf("Cyclomatic(a + b) = %d, want 1", got)
	}
}

func TestAnalyzeTree_HandBuilt(t *testing.T) {
	fc := AnalyzeTree("f.js", &grammar.Tree{Root: handTree(), Language: grammar.JavaScript})
	if fc.FunctionCount != 1 || fc.Functions[0].Name != "f" {
		t.Fatalf("functions = %+v", fc.Functions)
	}
	if fc.Functions[0].Lines != 5 {
		t.Errorf("Lines = %d, want 5", fc.Functions[0].Lines)
	}
}

func TestFileComplexity_Aggregate(t *testing.T) {
	fc := &FileComplexity{
		Functions: []Result{
			{Name: "a", Cyclomatic: 5, Cognitive: 10},
			{Name: "b", Cyclomatic: 3, Cognitive: 4},
			{Name: "c", Cyclomatic: 8, Cognitive: 15},
		},
	}
	fc.Aggregate()

	if fc.FunctionCount != 3 || fc.TotalCyclomatic != 16 || fc.TotalCognitive != 29 {
		t.Errorf("totals = %d/%d/%d", fc.FunctionCount, fc.TotalCyclomatic, fc.TotalCognitive)
	}
	if fc.MaxCyclomatic != 8 || fc.MaxCognitive != 15 {
		t.Errorf("max = %d/%d", fc.MaxCyclomatic, fc.MaxCognitive)
	}

	empty := &FileComplexity{}
	empty.Aggregate()
	if empty.AverageCyclomatic != 0 {
		t.Error("empty file should average to 0")
	}
}

func TestSupported(t *testing.T) {
	for _, l := range grammar.Languages {
		if !Supported(l) {
			t.Errorf("Supported(%s) = false", l)
		}
	}
}
