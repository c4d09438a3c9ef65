package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/vareon/searchdex/schema"
)

func testSchema(t *testing.T) *schema.IndexSchema {
	t.Helper()
	s, err := schema.Build(map[string]any{
		"index": map[string]any{"name": "users", "prefix": "user"},
		"fields": map[string]any{
			"tag":     []any{map[string]any{"name": "credit_score"}},
			"text":    []any{map[string]any{"name": "bio"}},
			"numeric": []any{map[string]any{"name": "age"}},
			"geo":     []any{map[string]any{"name": "location"}},
			"vector": []any{map[string]any{
				"name":            "embedding",
				"dims":            3,
				"algorithm":       "flat",
				"distance_metric": "cosine",
			}},
		},
	})
	if err != nil {
		t.Fatalf("schema.Build: %v", err)
	}
	return s
}

func compileOK(t *testing.T, f Filter, s *schema.IndexSchema) string {
	t.Helper()
	got, err := CompileFilter(f, s)
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	return got
}

func TestCompileFilter_Leaves(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name string
		f    Filter
		want string
	}{
		{"nil", nil, "*"},
		{"all", All(), "*"},
		{"tag single", Tag("credit_score", "high"), "@credit_score:{high}"},
		{"tag set", Tag("credit_score", "high", "medium"), "@credit_score:{high|medium}"},
		{"tag escaped", Tag("credit_score", "a-b c"), `@credit_score:{a\-b\ c}`},
		{"text", Text("bio", "engineer"), "@bio:(engineer)"},
		{"text prefix", TextPrefix("bio", "eng"), "@bio:(eng*)"},
		{"num eq", Num("age", OpEq, 30), "@age:[30 30]"},
		{"num ne", Num("age", OpNe, 30), "(-@age:[30 30])"},
		{"num gt", Num("age", OpGt, 18), "@age:[(18 +inf]"},
		{"num ge", Num("age", OpGe, 18), "@age:[18 +inf]"},
		{"num lt", Num("age", OpLt, 65), "@age:[-inf (65]"},
		{"num le", Num("age", OpLe, 65), "@age:[-inf 65]"},
		{"num between", NumBetween("age", 18, 65), "@age:[18 65]"},
		{"geo", Geo("location", -122.4, 37.7, 10, UnitKilometers), "@location:[-122.4 37.7 10 km]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileOK(t, tt.f, s); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileFilter_Combinators(t *testing.T) {
	s := testSchema(t)

	a := Tag("credit_score", "high")
	b := Num("age", OpGe, 18)
	c := Text("bio", "engineer")

	tests := []struct {
		name string
		f    Filter
		want string
	}{
		{"and", And(a, b), "(@credit_score:{high} @age:[18 +inf])"},
		{"or", Or(a, b), "(@credit_score:{high} | @age:[18 +inf])"},
		{"not", Not(a), "(-@credit_score:{high})"},
		{
			"and of or",
			And(Or(a, b), c),
			"((@credit_score:{high} | @age:[18 +inf]) @bio:(engineer))",
		},
		{
			"or of and",
			Or(And(a, b), c),
			"((@credit_score:{high} @age:[18 +inf]) | @bio:(engineer))",
		},
		{
			"not of nested",
			Not(And(a, Or(b, c))),
			"(-(@credit_score:{high} (@age:[18 +inf] | @bio:(engineer))))",
		},
		{"and with all", And(All(), a), "@credit_score:{high}"},
		{"or with all", Or(a, All()), "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileOK(t, tt.f, s); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Parenthesization keeps operator grouping unambiguous: swapping grouping of
// the same leaves must produce different strings.
func TestCompileFilter_GroupingIsExplicit(t *testing.T) {
	s := testSchema(t)

	a := Tag("credit_score", "high")
	b := Num("age", OpGe, 18)
	c := Text("bio", "engineer")

	left := compileOK(t, And(Or(a, b), c), s)
	right := compileOK(t, Or(a, And(b, c)), s)
	if left == right {
		t.Errorf("different groupings compiled identically: %q", left)
	}
}

func TestCompileFilter_Idempotent(t *testing.T) {
	s := testSchema(t)
	f := And(Or(Tag("credit_score", "high"), Num("age", OpLt, 30)), Not(Text("bio", "bot")))

	first := compileOK(t, f, s)
	for i := 0; i < 5; i++ {
		if got := compileOK(t, f, s); got != first {
			t.Fatalf("compile not idempotent: %q vs %q", got, first)
		}
	}
}

func TestCompileFilter_KindMismatch(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name string
		f    Filter
	}{
		{"text pattern on numeric field", Text("age", "thirty")},
		{"tag on text field", Tag("bio", "x")},
		{"numeric on tag field", Num("credit_score", OpGt, 1)},
		{"geo on numeric field", Geo("age", 0, 0, 1, UnitMeters)},
		{"nested mismatch", And(Tag("credit_score", "high"), Text("age", "x"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileFilter(tt.f, s)
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("err = %v, want BuildError", err)
			}
		})
	}
}

func TestCompileFilter_UnknownField(t *testing.T) {
	s := testSchema(t)
	_, err := CompileFilter(Tag("nope", "x"), s)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BuildError", err)
	}
	if be.Field != "nope" {
		t.Errorf("Field = %q", be.Field)
	}
	if !strings.Contains(be.Error(), "unknown field") {
		t.Errorf("Error() = %q", be.Error())
	}
}

func TestCompileFilter_InvalidLeaves(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name string
		f    Filter
	}{
		{"tag no values", Tag("credit_score")},
		{"tag empty value", Tag("credit_score", "")},
		{"text empty pattern", Text("bio", "")},
		{"between inverted", NumBetween("age", 65, 18)},
		{"geo bad unit", Geo("location", 0, 0, 1, GeoUnit("parsec"))},
		{"geo zero radius", Geo("location", 0, 0, 0, UnitMeters)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompileFilter(tt.f, s); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
