package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestVectorQuery_Compile(t *testing.T) {
	s := testSchema(t)

	c, err := NewVectorQuery("embedding", []float64{0.1, 0.1, 0.5}).
		K(3).
		Filter(Tag("credit_score", "high")).
		Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	want := "(@credit_score:{high})=>[KNN 3 @embedding $vector AS vector_distance]"
	if c.Query != want {
		t.Errorf("Query = %q, want %q", c.Query, want)
	}
	if len(c.Params) != 1 || c.Params[0].Name != "vector" {
		t.Fatalf("Params = %+v", c.Params)
	}
	if len(c.Params[0].Value) != 12 { // 3 × float32
		t.Errorf("vector param is %d bytes, want 12", len(c.Params[0].Value))
	}
	if !c.WithDistance {
		t.Error("WithDistance = false")
	}
	if c.SortBy != DistanceField || c.SortDesc {
		t.Errorf("sort = %q desc=%v", c.SortBy, c.SortDesc)
	}
	if !c.HasLimit || c.Offset != 0 || c.Limit != 3 {
		t.Errorf("limit window = [%d, %d)", c.Offset, c.Limit)
	}
}

func TestVectorQuery_NoFilter(t *testing.T) {
	s := testSchema(t)

	c, err := NewVectorQuery("embedding", []float64{0, 0, 0}).Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasPrefix(c.Query, "*=>[KNN 10 @embedding") {
		t.Errorf("Query = %q", c.Query)
	}
}

func TestVectorQuery_Float64Packing(t *testing.T) {
	s := testSchema(t)

	// Rebind the field to float64 via a fresh schema.
	s64 := buildVectorSchema(t, "float64")
	c, err := NewVectorQuery("embedding", []float64{0.1, 0.2, 0.3}).Compile(s64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(c.Params[0].Value) != 24 { // 3 × float64
		t.Errorf("vector param is %d bytes, want 24", len(c.Params[0].Value))
	}

	// Same query against the float32 schema packs half the bytes: the width
	// always comes from the bound field spec.
	c32, err := NewVectorQuery("embedding", []float64{0.1, 0.2, 0.3}).Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(c32.Params[0].Value) != 12 {
		t.Errorf("vector param is %d bytes, want 12", len(c32.Params[0].Value))
	}
}

func TestVectorQuery_DimensionMismatch(t *testing.T) {
	s := testSchema(t)

	_, err := NewVectorQuery("embedding", []float64{0.1, 0.2}).Compile(s)
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EncodingError", err)
	}
	if ee.Want != 3 || ee.Got != 2 {
		t.Errorf("EncodingError = %+v", ee)
	}
}

func TestVectorQuery_FieldErrors(t *testing.T) {
	s := testSchema(t)

	tests := []struct {
		name  string
		field string
	}{
		{"unknown field", "nope"},
		{"non-vector field", "age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVectorQuery(tt.field, []float64{0, 0, 0}).Compile(s)
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("err = %v, want BuildError", err)
			}
		})
	}
}

func TestVectorQuery_KBounds(t *testing.T) {
	s := testSchema(t)
	vec := []float64{0, 0, 0}

	if _, err := NewVectorQuery("embedding", vec).K(0).Compile(s); err == nil {
		t.Fatal("expected error for k=0")
	}
	if _, err := NewVectorQuery("embedding", vec).K(-1).Compile(s); err == nil {
		t.Fatal("expected error for negative k")
	}
	if _, err := NewVectorQuery("embedding", vec).K(DefaultMaxK + 1).Compile(s); err == nil {
		t.Fatal("expected error for k above max")
	}
	if _, err := NewVectorQuery("embedding", vec).MaxK(5).K(6).Compile(s); err == nil {
		t.Fatal("expected error for k above per-query max")
	}
}

func TestVectorQuery_ReturnFields(t *testing.T) {
	s := testSchema(t)
	vec := []float64{0, 0, 0}

	c, err := NewVectorQuery("embedding", vec).Return("age", "credit_score").Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []string{"age", "credit_score", DistanceField}
	if !reflect.DeepEqual(c.ReturnFields, want) {
		t.Errorf("ReturnFields = %v, want %v", c.ReturnFields, want)
	}

	_, err = NewVectorQuery("embedding", vec).Return("nonexistent_field").Compile(s)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BuildError", err)
	}
	if be.Field != "nonexistent_field" {
		t.Errorf("Field = %q", be.Field)
	}
}

func TestVectorQuery_EFRuntime(t *testing.T) {
	s := testSchema(t)

	c, err := NewVectorQuery("embedding", []float64{0, 0, 0}).EFRuntime(50).Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(c.Query, "EF_RUNTIME $EF") {
		t.Errorf("Query = %q", c.Query)
	}
	if len(c.Params) != 2 || c.Params[1].Name != "EF" || c.Params[1].Value != "50" {
		t.Errorf("Params = %+v", c.Params)
	}
}

// Compiling the same query twice yields byte-identical command output.
func TestVectorQuery_Idempotent(t *testing.T) {
	s := testSchema(t)
	q := NewVectorQuery("embedding", []float64{0.1, 0.1, 0.5}).
		K(3).
		Filter(And(Tag("credit_score", "high"), Num("age", OpGe, 18))).
		Return("age")

	first, err := q.Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := q.Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !reflect.DeepEqual(first.Args("users"), second.Args("users")) {
		t.Error("compiled args differ between compilations")
	}
}

func TestVectorQuery_Args(t *testing.T) {
	s := testSchema(t)

	c, err := NewVectorQuery("embedding", []float64{0, 0, 0}).K(2).Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	args := c.Args("users")
	want := []string{
		"users", "*=>[KNN 2 @embedding $vector AS vector_distance]",
		"SORTBY", "vector_distance", "ASC",
		"LIMIT", "0", "2",
		"PARAMS", "2", "vector", string(make([]byte, 12)),
		"DIALECT", "2",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Args =\n%q\nwant\n%q", args, want)
	}
}
