package query

import (
	"strconv"
	"strings"

	"github.com/vareon/searchdex/schema"
)

// Filter is a boolean search expression over indexed fields. Values are built
// with the Tag/Text/Num/Geo leaf constructors and the And/Or/Not combinators,
// and compile recursively to the store's query syntax. The set of
// implementations is closed; external types cannot satisfy the interface.
type Filter interface {
	// validate checks every referenced field against the schema before any
	// string is produced. Kind mismatches fail here, not at the store.
	validate(s *schema.IndexSchema) error
	// render writes the store query syntax for this node.
	render(sb *strings.Builder)
}

// GeoUnit is the distance unit of a geo radius filter.
type GeoUnit string

const (
	// UnitMeters is meters.
	UnitMeters GeoUnit = "m"
	// UnitKilometers is kilometers.
	UnitKilometers GeoUnit = "km"
	// UnitMiles is miles.
	UnitMiles GeoUnit = "mi"
	// UnitFeet is feet.
	UnitFeet GeoUnit = "ft"
)

// NumOp is the comparison operator of a numeric filter.
type NumOp int

const (
	// OpEq matches values equal to the bound.
	OpEq NumOp = iota
	// OpNe matches values not equal to the bound.
	OpNe
	// OpGt matches values strictly above the bound.
	OpGt
	// OpGe matches values at or above the bound.
	OpGe
	// OpLt matches values strictly below the bound.
	OpLt
	// OpLe matches values at or below the bound.
	OpLe
	// OpBetween matches values inside the inclusive [lo hi] range.
	OpBetween
)

// All matches every record.
func All() Filter { return allFilter{} }

// Tag matches records whose tag field holds any of the given values.
func Tag(field string, values ...string) Filter {
	return tagFilter{field: field, values: values}
}

// Text matches records whose text field matches the given pattern.
func Text(field, pattern string) Filter {
	return textFilter{field: field, pattern: pattern}
}

// TextPrefix matches records whose text field contains a word with the given
// prefix.
func TextPrefix(field, prefix string) Filter {
	return textFilter{field: field, pattern: prefix, prefix: true}
}

// Num builds a single-bound numeric comparison. For OpBetween use NumBetween.
func Num(field string, op NumOp, bound float64) Filter {
	return numFilter{field: field, op: op, lo: bound, hi: bound}
}

// NumBetween matches numeric values inside the inclusive [lo hi] range.
func NumBetween(field string, lo, hi float64) Filter {
	return numFilter{field: field, op: OpBetween, lo: lo, hi: hi}
}

// Geo matches records whose geo field lies within radius of (lon, lat).
func Geo(field string, lon, lat, radius float64, unit GeoUnit) Filter {
	return geoFilter{field: field, lon: lon, lat: lat, radius: radius, unit: unit}
}

// And matches records satisfying both sides.
func And(left, right Filter) Filter { return andFilter{left: left, right: right} }

// Or matches records satisfying either side.
func Or(left, right Filter) Filter { return orFilter{left: left, right: right} }

// Not matches records not satisfying the inner filter.
func Not(inner Filter) Filter { return notFilter{inner: inner} }

// CompileFilter validates f against the schema and returns its query syntax.
// A nil filter compiles to the match-all query.
func CompileFilter(f Filter, s *schema.IndexSchema) (string, error) {
	if f == nil {
		return "*", nil
	}
	if err := f.validate(s); err != nil {
		return "", err
	}
	var sb strings.Builder
	f.render(&sb)
	return sb.String(), nil
}

// --- leaves ---

type allFilter struct{}

func (allFilter) validate(*schema.IndexSchema) error { return nil }
func (allFilter) render(sb *strings.Builder)         { sb.WriteByte('*') }

type tagFilter struct {
	field  string
	values []string
}

func (f tagFilter) validate(s *schema.IndexSchema) error {
	if len(f.values) == 0 {
		return &BuildError{Field: f.field, Msg: "tag filter requires at least one value"}
	}
	for _, v := range f.values {
		if v == "" {
			return &BuildError{Field: f.field, Msg: "tag filter value must not be empty"}
		}
	}
	return requireKind(s, f.field, schema.KindTag)
}

func (f tagFilter) render(sb *strings.Builder) {
	sb.WriteByte('@')
	sb.WriteString(f.field)
	sb.WriteString(":{")
	for i, v := range f.values {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(tagEscaper.Replace(v))
	}
	sb.WriteByte('}')
}

type textFilter struct {
	field   string
	pattern string
	prefix  bool
}

func (f textFilter) validate(s *schema.IndexSchema) error {
	if f.pattern == "" {
		return &BuildError{Field: f.field, Msg: "text filter pattern must not be empty"}
	}
	return requireKind(s, f.field, schema.KindText)
}

func (f textFilter) render(sb *strings.Builder) {
	sb.WriteByte('@')
	sb.WriteString(f.field)
	sb.WriteString(":(")
	sb.WriteString(f.pattern)
	if f.prefix {
		sb.WriteByte('*')
	}
	sb.WriteByte(')')
}

type numFilter struct {
	field  string
	op     NumOp
	lo, hi float64
}

func (f numFilter) validate(s *schema.IndexSchema) error {
	if f.op == OpBetween && f.lo > f.hi {
		return &BuildError{Field: f.field, Msg: "numeric range lower bound exceeds upper bound"}
	}
	return requireKind(s, f.field, schema.KindNumeric)
}

// render emits interval syntax: equality degenerates to [v v], half-open
// comparisons use the store's "(" exclusive-bound notation against ±inf.
func (f numFilter) render(sb *strings.Builder) {
	lo := formatNum(f.lo)
	hi := formatNum(f.hi)

	var body string
	switch f.op {
	case OpEq:
		body = "[" + lo + " " + lo + "]"
	case OpNe:
		sb.WriteString("(-@")
		sb.WriteString(f.field)
		sb.WriteString(":[" + lo + " " + lo + "])")
		return
	case OpGt:
		body = "[(" + lo + " +inf]"
	case OpGe:
		body = "[" + lo + " +inf]"
	case OpLt:
		body = "[-inf (" + hi + "]"
	case OpLe:
		body = "[-inf " + hi + "]"
	case OpBetween:
		body = "[" + lo + " " + hi + "]"
	}

	sb.WriteByte('@')
	sb.WriteString(f.field)
	sb.WriteByte(':')
	sb.WriteString(body)
}

type geoFilter struct {
	field            string
	lon, lat, radius float64
	unit             GeoUnit
}

func (f geoFilter) validate(s *schema.IndexSchema) error {
	switch f.unit {
	case UnitMeters, UnitKilometers, UnitMiles, UnitFeet:
	default:
		return &BuildError{Field: f.field, Msg: "unknown geo unit " + strconv.Quote(string(f.unit))}
	}
	if f.radius <= 0 {
		return &BuildError{Field: f.field, Msg: "geo radius must be positive"}
	}
	return requireKind(s, f.field, schema.KindGeo)
}

func (f geoFilter) render(sb *strings.Builder) {
	sb.WriteByte('@')
	sb.WriteString(f.field)
	sb.WriteString(":[")
	sb.WriteString(formatNum(f.lon))
	sb.WriteByte(' ')
	sb.WriteString(formatNum(f.lat))
	sb.WriteByte(' ')
	sb.WriteString(formatNum(f.radius))
	sb.WriteByte(' ')
	sb.WriteString(string(f.unit))
	sb.WriteByte(']')
}

// --- combinators ---

type andFilter struct{ left, right Filter }

func (f andFilter) validate(s *schema.IndexSchema) error {
	if err := f.left.validate(s); err != nil {
		return err
	}
	return f.right.validate(s)
}

func (f andFilter) render(sb *strings.Builder) {
	if isAll(f.left) {
		f.right.render(sb)
		return
	}
	if isAll(f.right) {
		f.left.render(sb)
		return
	}
	sb.WriteByte('(')
	f.left.render(sb)
	sb.WriteByte(' ')
	f.right.render(sb)
	sb.WriteByte(')')
}

type orFilter struct{ left, right Filter }

func (f orFilter) validate(s *schema.IndexSchema) error {
	if err := f.left.validate(s); err != nil {
		return err
	}
	return f.right.validate(s)
}

func (f orFilter) render(sb *strings.Builder) {
	if isAll(f.left) || isAll(f.right) {
		sb.WriteByte('*')
		return
	}
	sb.WriteByte('(')
	f.left.render(sb)
	sb.WriteString(" | ")
	f.right.render(sb)
	sb.WriteByte(')')
}

type notFilter struct{ inner Filter }

func (f notFilter) validate(s *schema.IndexSchema) error {
	return f.inner.validate(s)
}

func (f notFilter) render(sb *strings.Builder) {
	sb.WriteString("(-")
	f.inner.render(sb)
	sb.WriteByte(')')
}

func isAll(f Filter) bool {
	_, ok := f.(allFilter)
	return ok
}

func requireKind(s *schema.IndexSchema, field string, kind schema.FieldKind) error {
	spec, ok := s.Field(field)
	if !ok {
		return &BuildError{Field: field, Msg: "unknown field"}
	}
	if spec.Kind != kind {
		return &BuildError{
			Field: field,
			Msg:   "filter requires a " + string(kind) + " field, schema declares " + string(spec.Kind),
		}
	}
	return nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// tagEscaper escapes RediSearch tag syntax characters in tag values.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
