package schema

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompileCreate_ThreeFieldScenario(t *testing.T) {
	s, err := Build(map[string]any{
		"index": map[string]any{"name": "users", "prefix": "user"},
		"fields": map[string]any{
			"tag":     []any{map[string]any{"name": "credit_score"}},
			"numeric": []any{map[string]any{"name": "age"}},
			"vector": []any{map[string]any{
				"name":            "embedding",
				"dims":            3,
				"algorithm":       "flat",
				"distance_metric": "cosine",
			}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}

	want := []string{
		"users", "ON", "HASH", "PREFIX", "1", "user:", "SCHEMA",
		"credit_score", "TAG",
		"age", "NUMERIC",
		"embedding", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32", "DIM", "3", "DISTANCE_METRIC", "COSINE",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args =\n%v\nwant\n%v", args, want)
	}
}

// One field-definition group per declared field, in declaration order.
func TestCompileCreate_OrderPreservation(t *testing.T) {
	s, err := Build(testRaw())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}

	joined := strings.Join(args, " ")
	schemaPart := joined[strings.Index(joined, "SCHEMA"):]

	var positions []int
	for _, name := range s.FieldNames() {
		pos := strings.Index(schemaPart, name)
		if pos < 0 {
			t.Fatalf("field %q missing from %q", name, schemaPart)
		}
		positions = append(positions, pos)
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] < positions[i-1] {
			t.Fatalf("field order not preserved in %q", schemaPart)
		}
	}
}

func TestCompileCreate_HNSWOptions(t *testing.T) {
	s, err := Build(map[string]any{
		"index": map[string]any{"name": "docs"},
		"fields": map[string]any{
			"vector": []any{map[string]any{
				"name":            "embedding",
				"dims":            768,
				"algorithm":       "hnsw",
				"distance_metric": "ip",
				"datatype":        "float64",
				"m":               16,
				"ef_construction": 200,
				"ef_runtime":      10,
			}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}

	joined := strings.Join(args, " ")
	want := "embedding VECTOR HNSW 12 TYPE FLOAT64 DIM 768 DISTANCE_METRIC IP M 16 EF_CONSTRUCTION 200 EF_RUNTIME 10"
	if !strings.Contains(joined, want) {
		t.Errorf("args = %q, want substring %q", joined, want)
	}
}

func TestCompileCreate_JSONStorageAliases(t *testing.T) {
	s, err := Build(map[string]any{
		"index": map[string]any{"name": "docs", "storage_type": "json"},
		"fields": map[string]any{
			"text": []any{map[string]any{"name": "title"}},
			"tag":  []any{map[string]any{"name": "lang", "path": "$.meta.lang"}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "ON JSON") {
		t.Errorf("missing ON JSON in %q", joined)
	}
	if !strings.Contains(joined, "$.meta.lang AS lang TAG") {
		t.Errorf("missing aliased tag path in %q", joined)
	}
	if !strings.Contains(joined, "$.title AS title TEXT") {
		t.Errorf("missing derived json path in %q", joined)
	}
}

func TestCompileCreate_FieldOptions(t *testing.T) {
	s, err := Build(map[string]any{
		"index": map[string]any{"name": "docs"},
		"fields": map[string]any{
			"text": []any{map[string]any{
				"name": "title", "weight": 2.0, "no_stem": true, "sortable": true,
			}},
			"tag": []any{map[string]any{
				"name": "lang", "separator": "|", "case_sensitive": true,
			}},
			"numeric": []any{map[string]any{"name": "age", "sortable": true}},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	args, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"title TEXT NOSTEM WEIGHT 2 SORTABLE",
		"lang TAG SEPARATOR | CASESENSITIVE",
		"age NUMERIC SORTABLE",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args = %q, want substring %q", joined, want)
		}
	}
}

// Compiling the same schema twice yields identical output.
func TestCompileCreate_Idempotent(t *testing.T) {
	s, err := Build(testRaw())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	first, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}
	second, err := CompileCreate(s)
	if err != nil {
		t.Fatalf("CompileCreate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("compile not idempotent:\n%v\n%v", first, second)
	}
}
