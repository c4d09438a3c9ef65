package schema

import (
	"fmt"
	"strings"
)

// FieldKind enumerates the supported index field kinds.
type FieldKind string

const (
	// KindTag is an exact-match tag field.
	KindTag FieldKind = "tag"
	// KindText is a full-text field.
	KindText FieldKind = "text"
	// KindNumeric is a numeric range field.
	KindNumeric FieldKind = "numeric"
	// KindGeo is a geographic point field.
	KindGeo FieldKind = "geo"
	// KindVector is a vector similarity field.
	KindVector FieldKind = "vector"
)

// StorageType defines the document storage backend for an index (HASH or JSON).
type StorageType string

const (
	// StorageHash stores records as flat hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores records as JSON documents.
	StorageJSON StorageType = "JSON"
)

// DistanceMetric used by vector similarity queries.
type DistanceMetric string

const (
	// MetricCosine is cosine distance.
	MetricCosine DistanceMetric = "COSINE"
	// MetricIP is inner product distance.
	MetricIP DistanceMetric = "IP"
	// MetricL2 is Euclidean distance.
	MetricL2 DistanceMetric = "L2"
)

// VectorAlgorithm selects the indexing algorithm for vector fields.
type VectorAlgorithm string

const (
	// AlgorithmFlat uses brute-force search.
	AlgorithmFlat VectorAlgorithm = "FLAT"
	// AlgorithmHNSW uses the HNSW graph algorithm.
	AlgorithmHNSW VectorAlgorithm = "HNSW"
)

// VectorDataType is the numeric width vectors are stored with.
type VectorDataType string

const (
	// Float32 packs 4 bytes per component.
	Float32 VectorDataType = "FLOAT32"
	// Float64 packs 8 bytes per component.
	Float64 VectorDataType = "FLOAT64"
)

// Width returns the byte width of one vector component.
func (dt VectorDataType) Width() int {
	if dt == Float64 {
		return 8
	}
	return 4
}

// FieldSpec describes a single field in an index schema. Kind selects which
// attribute group is meaningful.
type FieldSpec struct {
	Name string
	Path string // source attribute when it differs from Name (JSON storage)
	Kind FieldKind

	// TAG options
	Separator     string
	CaseSensitive bool

	// TEXT options
	Weight float64
	NoStem bool

	// TAG/TEXT/NUMERIC options
	Sortable bool

	// VECTOR options
	Dims           int
	Algorithm      VectorAlgorithm
	Metric         DistanceMetric
	DataType       VectorDataType
	M              int // HNSW: max edges per node
	EFConstruction int // HNSW: build-time candidate list size
	EFRuntime      int // HNSW: default query-time candidate list size
	BlockSize      int // FLAT: allocation block size
}

func parseStorageType(s string) (StorageType, error) {
	switch strings.ToUpper(s) {
	case "", "HASH":
		return StorageHash, nil
	case "JSON":
		return StorageJSON, nil
	default:
		return "", fmt.Errorf("%w: storage_type %q", ErrInvalidAttribute, s)
	}
}

func parseDistanceMetric(s string) (DistanceMetric, error) {
	switch strings.ToUpper(s) {
	case "", "COSINE":
		return MetricCosine, nil
	case "IP":
		return MetricIP, nil
	case "L2":
		return MetricL2, nil
	default:
		return "", fmt.Errorf("%w: distance_metric %q", ErrInvalidAttribute, s)
	}
}

func parseVectorAlgorithm(s string) (VectorAlgorithm, error) {
	switch strings.ToUpper(s) {
	case "FLAT":
		return AlgorithmFlat, nil
	case "HNSW":
		return AlgorithmHNSW, nil
	default:
		return "", fmt.Errorf("%w: algorithm %q", ErrInvalidAttribute, s)
	}
}

func parseVectorDataType(s string) (VectorDataType, error) {
	switch strings.ToUpper(s) {
	case "", "FLOAT32":
		return Float32, nil
	case "FLOAT64":
		return Float64, nil
	default:
		return "", fmt.Errorf("%w: datatype %q", ErrInvalidAttribute, s)
	}
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
