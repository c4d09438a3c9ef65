package schema

import (
	"fmt"
	"strings"
)

// groupOrder fixes the iteration order of field groups so that building from
// an unordered map is deterministic. Within a group, declaration order wins.
var groupOrder = []FieldKind{KindTag, KindText, KindNumeric, KindGeo, KindVector}

// IndexSchema is the validated, immutable description of an index: its name,
// key namespace, storage layout and ordered field list. Build a new one to
// change the definition; there is no in-place mutation, so a single schema
// can be shared by concurrent compiler and parser invocations.
type IndexSchema struct {
	name     string
	prefix   string
	keyField string
	storage  StorageType
	fields   []FieldSpec
	byName   map[string]int
}

// Name returns the index identifier.
func (s *IndexSchema) Name() string { return s.name }

// Prefix returns the key prefix records are stored under.
func (s *IndexSchema) Prefix() string { return s.prefix }

// KeyField returns the field supplying record keys, or "" when keys are
// generated.
func (s *IndexSchema) KeyField() string { return s.keyField }

// Storage returns the storage layout.
func (s *IndexSchema) Storage() StorageType { return s.storage }

// Fields returns the declared fields in declaration order.
func (s *IndexSchema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declared field by name.
func (s *IndexSchema) Field(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// FieldNames returns the declared field names in declaration order.
func (s *IndexSchema) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i := range s.fields {
		out[i] = s.fields[i].Name
	}
	return out
}

// Build constructs an IndexSchema from a raw mapping with two top-level
// groups: "index" attributes and "fields" grouped by kind. The built-in
// Registry validates each field.
func Build(raw map[string]any) (*IndexSchema, error) {
	return BuildWith(NewRegistry(), raw)
}

// BuildWith is Build with an explicit field-kind registry.
func BuildWith(reg *Registry, raw map[string]any) (*IndexSchema, error) {
	idxAttrs, err := section(raw, "index")
	if err != nil {
		return nil, err
	}

	s := &IndexSchema{byName: make(map[string]int)}

	if s.name, err = optString(idxAttrs, "name"); err != nil {
		return nil, err
	}
	if s.name == "" {
		return nil, fmt.Errorf("%w: index name", ErrMissingAttribute)
	}
	if !IsValidIdentifier(s.name) {
		return nil, fmt.Errorf("%w: index name %q contains invalid characters", ErrInvalidAttribute, s.name)
	}

	if s.prefix, err = optString(idxAttrs, "prefix"); err != nil {
		return nil, err
	}
	if s.prefix == "" {
		s.prefix = s.name
	}

	storage, err := optString(idxAttrs, "storage_type")
	if err != nil {
		return nil, err
	}
	if s.storage, err = parseStorageType(storage); err != nil {
		return nil, err
	}

	if s.keyField, err = optString(idxAttrs, "key_field"); err != nil {
		return nil, err
	}

	groups, err := fieldGroups(raw)
	if err != nil {
		return nil, err
	}
	for kind := range groups {
		if _, known := reg.kinds[kind]; !known {
			return nil, fmt.Errorf("%w: fields.%s", ErrUnknownFieldKind, kind)
		}
	}

	for _, kind := range orderedKinds(reg, groups) {
		for _, attrs := range groups[kind] {
			name, err := optString(attrs, "name")
			if err != nil {
				return nil, err
			}
			spec, err := reg.Describe(kind, name, attrs)
			if err != nil {
				return nil, err
			}
			if err := s.addField(spec); err != nil {
				return nil, err
			}
		}
	}

	if len(s.fields) == 0 {
		return nil, fmt.Errorf("%w: at least one field", ErrMissingAttribute)
	}

	if s.keyField != "" {
		if _, ok := s.byName[s.keyField]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKeyField, s.keyField)
		}
	}

	return s, nil
}

func (s *IndexSchema) addField(spec FieldSpec) error {
	if _, dup := s.byName[spec.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateFieldName, spec.Name)
	}
	if strings.HasPrefix(spec.Path, "$.") && s.storage != StorageJSON {
		return fmt.Errorf("%w: field %q uses a JSON path under %s storage",
			ErrInvalidAttribute, spec.Name, s.storage)
	}
	s.byName[spec.Name] = len(s.fields)
	s.fields = append(s.fields, spec)
	return nil
}

// orderedKinds returns built-in kinds in canonical group order followed by any
// custom registered kinds present in the input, sorted.
func orderedKinds(reg *Registry, groups map[FieldKind][]map[string]any) []FieldKind {
	seen := make(map[FieldKind]bool, len(groupOrder))
	out := make([]FieldKind, 0, len(groups))
	for _, k := range groupOrder {
		seen[k] = true
		if _, ok := groups[k]; ok {
			out = append(out, k)
		}
	}
	for _, k := range reg.Kinds() {
		if !seen[k] {
			if _, ok := groups[k]; ok {
				out = append(out, k)
			}
		}
	}
	return out
}

func section(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q section", ErrMissingAttribute, key)
	}
	m, err := toStringMap(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q section: %v", ErrInvalidAttribute, key, err)
	}
	return m, nil
}

func fieldGroups(raw map[string]any) (map[FieldKind][]map[string]any, error) {
	sec, err := section(raw, "fields")
	if err != nil {
		return nil, err
	}
	groups := make(map[FieldKind][]map[string]any, len(sec))
	for kind, v := range sec {
		list, ok := v.([]any)
		if !ok {
			// Direct map input may carry the typed slice already.
			if typed, ok := v.([]map[string]any); ok {
				groups[FieldKind(kind)] = typed
				continue
			}
			return nil, fmt.Errorf("%w: fields.%s must be a list", ErrInvalidAttribute, kind)
		}
		entries := make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, err := toStringMap(item)
			if err != nil {
				return nil, fmt.Errorf("%w: fields.%s[%d]: %v", ErrInvalidAttribute, kind, i, err)
			}
			entries = append(entries, m)
		}
		groups[FieldKind(kind)] = entries
	}
	return groups, nil
}

// toStringMap accepts the map shapes YAML and JSON decoders produce.
func toStringMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected mapping, got %T", v)
	}
}
