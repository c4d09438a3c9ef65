package searchdex

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/vareon/searchdex/internal/vecpack"
	"github.com/vareon/searchdex/query"
	"github.com/vareon/searchdex/schema"
)

// parseSearchResult walks an FT.SEARCH reply: the leading total count, then
// alternating [key, field-value array] pairs. Field values decode per the
// schema, and for similarity queries the wire distance alias is renamed onto
// Document.Distance.
func parseSearchResult(raw []rueidis.RedisMessage, withDistance bool, s *schema.IndexSchema) (*Result, error) {
	if len(raw) == 0 {
		return &Result{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("searchdex: parse total: %w", err)
	}
	res := &Result{Total: int(total)}
	if total == 0 || len(raw) == 1 {
		return res, nil
	}

	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldMsgs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		doc := decodeFields(key, fieldPairs(fieldMsgs), s)
		if withDistance {
			extractDistance(&doc)
		}
		res.Docs = append(res.Docs, doc)
	}

	return res, nil
}

func fieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// decodeFields types raw wire strings according to the schema. Fields the
// schema does not declare stay strings.
func decodeFields(key string, wire map[string]string, s *schema.IndexSchema) Document {
	doc := Document{Key: key, Fields: make(map[string]any, len(wire))}

	for name, value := range wire {
		// JSON storage without a projection returns the whole document
		// under the root path.
		if name == "$" {
			var m map[string]any
			if err := json.Unmarshal([]byte(value), &m); err == nil {
				for k, v := range m {
					doc.Fields[k] = v
				}
				continue
			}
		}

		spec, ok := s.Field(name)
		if !ok {
			doc.Fields[name] = value
			continue
		}
		switch spec.Kind {
		case schema.KindNumeric:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				doc.Fields[name] = f
			} else {
				doc.Fields[name] = value
			}
		case schema.KindVector:
			if v, err := vecpack.Unpack([]byte(value), spec.DataType); err == nil {
				doc.Fields[name] = v
			} else {
				doc.Fields[name] = value
			}
		default:
			doc.Fields[name] = value
		}
	}

	return doc
}

func extractDistance(doc *Document) {
	raw, ok := doc.Fields[query.DistanceField]
	if !ok {
		return
	}
	str, ok := raw.(string)
	if !ok {
		return
	}
	if d, err := strconv.ParseFloat(str, 64); err == nil {
		doc.Distance = d
		doc.HasDistance = true
		delete(doc.Fields, query.DistanceField)
	}
}
