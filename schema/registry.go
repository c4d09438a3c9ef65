package schema

import (
	"fmt"
	"sort"
)

// DescribeFunc validates a raw attribute map and produces a FieldSpec.
// Implementations must be pure: same input, same output, no side effects.
type DescribeFunc func(name string, attrs map[string]any) (FieldSpec, error)

// Registry maps field kinds to their describe functions. A Registry is an
// explicit value passed to schema construction, not ambient global state, so
// schemas with custom kinds can coexist in one process.
type Registry struct {
	kinds map[FieldKind]DescribeFunc
}

// NewRegistry creates a Registry with the five built-in kinds registered.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[FieldKind]DescribeFunc, 5)}
	r.kinds[KindTag] = describeTag
	r.kinds[KindText] = describeText
	r.kinds[KindNumeric] = describeNumeric
	r.kinds[KindGeo] = describeGeo
	r.kinds[KindVector] = describeVector
	return r
}

// Register adds a custom field kind. Overriding a built-in kind is an error.
func (r *Registry) Register(kind FieldKind, fn DescribeFunc) error {
	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("schema: kind %q already registered", kind)
	}
	if fn == nil {
		return fmt.Errorf("schema: describe function for kind %q is nil", kind)
	}
	r.kinds[kind] = fn
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []FieldKind {
	out := make([]FieldKind, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Describe validates kind-specific attributes and returns a fully-built
// FieldSpec. On error no partially-built spec is returned.
func (r *Registry) Describe(kind FieldKind, name string, attrs map[string]any) (FieldSpec, error) {
	fn, ok := r.kinds[kind]
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrUnknownFieldKind, kind)
	}
	if name == "" {
		return FieldSpec{}, fmt.Errorf("%w: field name", ErrMissingAttribute)
	}
	spec, err := fn(name, attrs)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("field %q: %w", name, err)
	}
	return spec, nil
}

// --- built-in describe functions ---

func describeTag(name string, attrs map[string]any) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Kind: KindTag, Separator: ","}

	sep, err := optString(attrs, "separator")
	if err != nil {
		return FieldSpec{}, err
	}
	if sep != "" {
		if len(sep) != 1 {
			return FieldSpec{}, fmt.Errorf("%w: separator must be a single character, got %q", ErrInvalidAttribute, sep)
		}
		spec.Separator = sep
	}
	if spec.CaseSensitive, err = optBool(attrs, "case_sensitive"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Sortable, err = optBool(attrs, "sortable"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Path, err = optString(attrs, "path"); err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

func describeText(name string, attrs map[string]any) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Kind: KindText, Weight: 1.0}

	var err error
	if w, ok := attrs["weight"]; ok {
		spec.Weight, err = toFloat(w)
		if err != nil {
			return FieldSpec{}, fmt.Errorf("%w: weight: %v", ErrInvalidAttribute, err)
		}
		if spec.Weight <= 0 {
			return FieldSpec{}, fmt.Errorf("%w: weight must be positive, got %g", ErrInvalidAttribute, spec.Weight)
		}
	}
	if spec.NoStem, err = optBool(attrs, "no_stem"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Sortable, err = optBool(attrs, "sortable"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Path, err = optString(attrs, "path"); err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

func describeNumeric(name string, attrs map[string]any) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Kind: KindNumeric}

	var err error
	if spec.Sortable, err = optBool(attrs, "sortable"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Path, err = optString(attrs, "path"); err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

func describeGeo(name string, attrs map[string]any) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Kind: KindGeo}

	var err error
	if spec.Sortable, err = optBool(attrs, "sortable"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Path, err = optString(attrs, "path"); err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

func describeVector(name string, attrs map[string]any) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Kind: KindVector}

	dims, ok := attrs["dims"]
	if !ok {
		return FieldSpec{}, fmt.Errorf("%w: dims", ErrMissingAttribute)
	}
	d, err := toInt(dims)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("%w: dims: %v", ErrInvalidAttribute, err)
	}
	if d <= 0 {
		return FieldSpec{}, fmt.Errorf("%w: dims must be positive, got %d", ErrInvalidAttribute, d)
	}
	spec.Dims = d

	algo, err := optString(attrs, "algorithm")
	if err != nil {
		return FieldSpec{}, err
	}
	if algo == "" {
		return FieldSpec{}, fmt.Errorf("%w: algorithm", ErrMissingAttribute)
	}
	if spec.Algorithm, err = parseVectorAlgorithm(algo); err != nil {
		return FieldSpec{}, err
	}

	metric, err := optString(attrs, "distance_metric")
	if err != nil {
		return FieldSpec{}, err
	}
	if spec.Metric, err = parseDistanceMetric(metric); err != nil {
		return FieldSpec{}, err
	}

	dt, err := optString(attrs, "datatype")
	if err != nil {
		return FieldSpec{}, err
	}
	if spec.DataType, err = parseVectorDataType(dt); err != nil {
		return FieldSpec{}, err
	}

	if spec.M, err = optInt(attrs, "m"); err != nil {
		return FieldSpec{}, err
	}
	if spec.EFConstruction, err = optInt(attrs, "ef_construction"); err != nil {
		return FieldSpec{}, err
	}
	if spec.EFRuntime, err = optInt(attrs, "ef_runtime"); err != nil {
		return FieldSpec{}, err
	}
	if spec.BlockSize, err = optInt(attrs, "block_size"); err != nil {
		return FieldSpec{}, err
	}
	if spec.Path, err = optString(attrs, "path"); err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

// --- attribute coercion helpers ---

func optString(attrs map[string]any, key string) (string, error) {
	v, ok := attrs[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidAttribute, key, v)
	}
	return s, nil
}

func optBool(attrs map[string]any, key string) (bool, error) {
	v, ok := attrs[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidAttribute, key, v)
	}
	return b, nil
}

func optInt(attrs map[string]any, key string) (int, error) {
	v, ok := attrs[key]
	if !ok {
		return 0, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidAttribute, key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidAttribute, key, n)
	}
	return n, nil
}

// toInt accepts the integer shapes YAML and JSON decoders produce.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
