package schema

import "errors"

// Sentinel errors for schema validation. All construction paths fail with an
// error wrapping one of these; nothing is deferred to query time.
var (
	ErrUnknownFieldKind   = errors.New("schema: unknown field kind")
	ErrMissingAttribute   = errors.New("schema: missing required attribute")
	ErrInvalidAttribute   = errors.New("schema: invalid attribute value")
	ErrDuplicateFieldName = errors.New("schema: duplicate field name")
	ErrUnknownKeyField    = errors.New("schema: key_field does not reference a declared field")
)
