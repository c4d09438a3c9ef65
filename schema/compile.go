package schema

import (
	"errors"
	"strconv"
	"strings"
)

// CompileCreate turns a schema into the FT.CREATE argument list, one
// field-definition group per FieldSpec in declaration order. Pure; the caller
// hands the result to the store client.
func CompileCreate(s *IndexSchema) ([]string, error) {
	if s == nil {
		return nil, errors.New("schema: nil schema")
	}

	args := []string{s.name, "ON", string(s.storage)}

	if s.prefix != "" {
		prefix := s.prefix
		if !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		args = append(args, "PREFIX", "1", prefix)
	}

	args = append(args, "SCHEMA")

	for i := range s.fields {
		fieldArgs, err := compileField(&s.fields[i], s.storage)
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func compileField(f *FieldSpec, storage StorageType) ([]string, error) {
	path := f.Path
	if path == "" {
		if storage == StorageJSON {
			path = "$." + f.Name
		} else {
			path = f.Name
		}
	}

	args := []string{path}
	if path != f.Name {
		args = append(args, "AS", f.Name)
	}

	switch f.Kind {
	case KindNumeric:
		args = append(args, "NUMERIC")
		if f.Sortable {
			args = append(args, "SORTABLE")
		}

	case KindGeo:
		args = append(args, "GEO")
		if f.Sortable {
			args = append(args, "SORTABLE")
		}

	case KindText:
		args = append(args, "TEXT")
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
		if f.Weight != 0 && f.Weight != 1 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'g', -1, 64))
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}

	case KindTag:
		args = append(args, "TAG")
		if f.Separator != "" && f.Separator != "," {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}

	case KindVector:
		vectorArgs, err := compileVectorField(f)
		if err != nil {
			return nil, err
		}
		args = append(args, vectorArgs...)

	default:
		return nil, errors.New("schema: field " + f.Name + " has no index encoding for kind " + string(f.Kind))
	}

	return args, nil
}

func compileVectorField(f *FieldSpec) ([]string, error) {
	if f.Dims <= 0 {
		return nil, errors.New("schema: vector field " + f.Name + " requires positive dims")
	}

	attrs := []string{
		"TYPE", string(f.DataType),
		"DIM", strconv.Itoa(f.Dims),
		"DISTANCE_METRIC", string(f.Metric),
	}

	switch f.Algorithm {
	case AlgorithmHNSW:
		if f.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.M))
		}
		if f.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruction))
		}
		if f.EFRuntime > 0 {
			attrs = append(attrs, "EF_RUNTIME", strconv.Itoa(f.EFRuntime))
		}
	case AlgorithmFlat:
		if f.BlockSize > 0 {
			attrs = append(attrs, "BLOCK_SIZE", strconv.Itoa(f.BlockSize))
		}
	}

	out := make([]string, 0, 3+len(attrs))
	out = append(out, "VECTOR", string(f.Algorithm), strconv.Itoa(len(attrs)))
	out = append(out, attrs...)
	return out, nil
}
