package searchdex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vareon/searchdex/internal/metrics"
	"github.com/vareon/searchdex/internal/vecpack"
	"github.com/vareon/searchdex/query"
	"github.com/vareon/searchdex/schema"
)

// SearchIndex orchestrates schema compilation, query compilation and result
// parsing against a StoreClient. It owns no state beyond the immutable schema
// and the client handle; calls may run concurrently as long as the client
// supports concurrent command execution.
type SearchIndex struct {
	schema *schema.IndexSchema
	client StoreClient
	log    *zap.Logger
	rec    *metrics.Recorder
}

// New binds a schema to a store client.
func New(client StoreClient, s *schema.IndexSchema, opts ...Option) (*SearchIndex, error) {
	if client == nil {
		return nil, errors.New("searchdex: store client is required")
	}
	if s == nil {
		return nil, errors.New("searchdex: schema is required")
	}
	idx := &SearchIndex{schema: s, client: client, log: zap.NewNop()}
	for _, o := range opts {
		o(idx)
	}
	return idx, nil
}

// Schema returns the bound schema.
func (i *SearchIndex) Schema() *schema.IndexSchema { return i.schema }

// Create creates the index on the store. With overwrite the existing index is
// dropped first (documents kept); without it an existing index is
// ErrIndexExists.
func (i *SearchIndex) Create(ctx context.Context, overwrite bool) (err error) {
	defer i.observe("create", time.Now(), &err)

	caps, err := i.client.Capabilities(ctx)
	if err != nil {
		return fmt.Errorf("searchdex: capabilities: %w", err)
	}
	if !caps.Search {
		return errors.New("searchdex: store does not support search indexes")
	}
	if i.schema.Storage() == schema.StorageJSON && !caps.JSON {
		return errors.New("searchdex: store does not support JSON storage")
	}

	if overwrite {
		if dropErr := i.Drop(ctx, false); dropErr != nil && !errors.Is(dropErr, ErrIndexNotFound) {
			return dropErr
		}
	}

	args, err := schema.CompileCreate(i.schema)
	if err != nil {
		return err
	}

	i.log.Debug("creating index",
		zap.String("index", i.schema.Name()),
		zap.Strings("args", args),
	)

	if _, err := i.client.Execute(ctx, "FT.CREATE", args); err != nil {
		if isStoreErr(err, "index already exists") {
			return ErrIndexExists
		}
		return &StoreError{Op: "FT.CREATE", Index: i.schema.Name(), Err: err}
	}

	i.log.Info("index created", zap.String("index", i.schema.Name()))
	return nil
}

// Drop removes the index. With deleteDocs the indexed documents are deleted
// too (DD).
func (i *SearchIndex) Drop(ctx context.Context, deleteDocs bool) (err error) {
	defer i.observe("drop", time.Now(), &err)

	args := []string{i.schema.Name()}
	if deleteDocs {
		args = append(args, "DD")
	}
	if _, err := i.client.Execute(ctx, "FT.DROPINDEX", args); err != nil {
		if isStoreErr(err, "unknown index name") || isStoreErr(err, "no such index") {
			return ErrIndexNotFound
		}
		return &StoreError{Op: "FT.DROPINDEX", Index: i.schema.Name(), Err: err}
	}

	i.log.Info("index dropped", zap.String("index", i.schema.Name()))
	return nil
}

// Exists probes index existence; "unknown index name" means absent.
func (i *SearchIndex) Exists(ctx context.Context) (bool, error) {
	if _, err := i.client.Execute(ctx, "FT.INFO", []string{i.schema.Name()}); err != nil {
		if isStoreErr(err, "unknown index name") || isStoreErr(err, "no such index") {
			return false, nil
		}
		return false, &StoreError{Op: "FT.INFO", Index: i.schema.Name(), Err: err}
	}
	return true, nil
}

// Info returns the scalar attributes FT.INFO reports.
func (i *SearchIndex) Info(ctx context.Context) (map[string]string, error) {
	msg, err := i.client.Execute(ctx, "FT.INFO", []string{i.schema.Name()})
	if err != nil {
		if isStoreErr(err, "unknown index name") || isStoreErr(err, "no such index") {
			return nil, ErrIndexNotFound
		}
		return nil, &StoreError{Op: "FT.INFO", Index: i.schema.Name(), Err: err}
	}
	arr, err := msg.ToArray()
	if err != nil {
		return nil, fmt.Errorf("searchdex: parse info: %w", err)
	}

	info := make(map[string]string, len(arr)/2)
	for j := 0; j+1 < len(arr); j += 2 {
		key, err := arr[j].ToString()
		if err != nil {
			continue
		}
		if val, err := arr[j+1].ToString(); err == nil {
			info[key] = val
			continue
		}
		if n, err := arr[j+1].AsInt64(); err == nil {
			info[key] = strconv.FormatInt(n, 10)
		}
	}
	return info, nil
}

// Load writes records under the schema's key prefix and returns the stored
// keys in record order. The key comes from the schema's key field when one is
// declared, otherwise a fresh UUID. Vector values are packed to the byte
// width their field spec declares.
func (i *SearchIndex) Load(ctx context.Context, records []map[string]any) (keys []string, err error) {
	defer i.observe("load", time.Now(), &err)

	keys = make([]string, 0, len(records))
	for n, record := range records {
		key, err := i.recordKey(record)
		if err != nil {
			return nil, fmt.Errorf("searchdex: record %d: %w", n, err)
		}
		if err := i.storeRecord(ctx, key, record); err != nil {
			return nil, fmt.Errorf("searchdex: record %d: %w", n, err)
		}
		keys = append(keys, key)
	}

	i.log.Debug("records loaded",
		zap.String("index", i.schema.Name()),
		zap.Int("count", len(keys)),
	)
	return keys, nil
}

func (i *SearchIndex) recordKey(record map[string]any) (string, error) {
	var id string
	if kf := i.schema.KeyField(); kf != "" {
		v, ok := record[kf]
		if !ok {
			return "", fmt.Errorf("missing key field %q", kf)
		}
		id = fmt.Sprint(v)
	} else {
		id = uuid.NewString()
	}
	return i.schema.Prefix() + ":" + id, nil
}

func (i *SearchIndex) storeRecord(ctx context.Context, key string, record map[string]any) error {
	if i.schema.Storage() == schema.StorageJSON {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		if _, err := i.client.Execute(ctx, "JSON.SET", []string{key, "$", string(data)}); err != nil {
			return &StoreError{Op: "JSON.SET", Index: i.schema.Name(), Err: err}
		}
		return nil
	}

	args := []string{key}
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		wire, err := i.encodeHashValue(name, record[name])
		if err != nil {
			return err
		}
		args = append(args, name, wire)
	}
	if _, err := i.client.Execute(ctx, "HSET", args); err != nil {
		return &StoreError{Op: "HSET", Index: i.schema.Name(), Err: err}
	}
	return nil
}

// encodeHashValue converts one record value to its hash wire form. Vectors
// pack per the field spec; anything else stringifies.
func (i *SearchIndex) encodeHashValue(name string, v any) (string, error) {
	spec, ok := i.schema.Field(name)
	if ok && spec.Kind == schema.KindVector {
		vec, err := toVector(v)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", name, err)
		}
		if len(vec) != spec.Dims {
			return "", fmt.Errorf("field %q: vector has %d components, field declares dims %d",
				name, len(vec), spec.Dims)
		}
		packed, err := vecpack.Pack(vec, spec.DataType)
		if err != nil {
			return "", err
		}
		return string(packed), nil
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return fmt.Sprint(val), nil
	}
}

func toVector(v any) ([]float64, error) {
	switch vec := v.(type) {
	case []float64:
		return vec, nil
	case []float32:
		return query.Float32s(vec), nil
	case []any:
		out := make([]float64, len(vec))
		for i, item := range vec {
			f, ok := item.(float64)
			if !ok {
				return nil, fmt.Errorf("vector component %d is %T, want float64", i, item)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a vector", v)
	}
}

// Fetch retrieves one record by its id (without the key prefix).
func (i *SearchIndex) Fetch(ctx context.Context, id string) (Document, error) {
	key := i.schema.Prefix() + ":" + id

	if i.schema.Storage() == schema.StorageJSON {
		msg, err := i.client.Execute(ctx, "JSON.GET", []string{key, "$"})
		if err != nil {
			return Document{}, &StoreError{Op: "JSON.GET", Index: i.schema.Name(), Err: err}
		}
		if msg.IsNil() {
			return Document{}, ErrKeyNotFound
		}
		raw, err := msg.ToString()
		if err != nil {
			return Document{}, fmt.Errorf("searchdex: fetch %s: %w", key, err)
		}
		var docs []map[string]any
		if err := json.Unmarshal([]byte(raw), &docs); err != nil || len(docs) == 0 {
			return Document{}, fmt.Errorf("searchdex: fetch %s: malformed document", key)
		}
		return Document{Key: key, Fields: docs[0]}, nil
	}

	msg, err := i.client.Execute(ctx, "HGETALL", []string{key})
	if err != nil {
		return Document{}, &StoreError{Op: "HGETALL", Index: i.schema.Name(), Err: err}
	}
	fields, err := msg.AsStrMap()
	if err != nil {
		return Document{}, fmt.Errorf("searchdex: fetch %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Document{}, ErrKeyNotFound
	}
	return decodeFields(key, fields, i.schema), nil
}

// Search compiles q against the bound schema, executes it and parses the
// response into typed documents. Compile failures happen before any store
// interaction.
func (i *SearchIndex) Search(ctx context.Context, q query.Query) (res *Result, err error) {
	defer i.observe("search", time.Now(), &err)

	compiled, err := q.Compile(i.schema)
	if err != nil {
		return nil, err
	}

	i.log.Debug("executing search",
		zap.String("index", i.schema.Name()),
		zap.String("query", compiled.Query),
	)

	msg, err := i.client.Execute(ctx, "FT.SEARCH", compiled.Args(i.schema.Name()))
	if err != nil {
		return nil, &StoreError{Op: "FT.SEARCH", Index: i.schema.Name(), Err: err}
	}
	arr, err := msg.ToArray()
	if err != nil {
		return nil, fmt.Errorf("searchdex: parse search reply: %w", err)
	}
	return parseSearchResult(arr, compiled.WithDistance, i.schema)
}

// QueryRaw executes a raw query string with bound parameters. An escape hatch
// for syntax the builders do not cover; results still decode per the schema.
func (i *SearchIndex) QueryRaw(ctx context.Context, queryString string, params map[string]string) (res *Result, err error) {
	defer i.observe("search", time.Now(), &err)

	args := []string{i.schema.Name(), queryString}
	if len(params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(params)*2))
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			args = append(args, name, params[name])
		}
	}
	args = append(args, "DIALECT", "2")

	msg, err := i.client.Execute(ctx, "FT.SEARCH", args)
	if err != nil {
		return nil, &StoreError{Op: "FT.SEARCH", Index: i.schema.Name(), Err: err}
	}
	arr, err := msg.ToArray()
	if err != nil {
		return nil, fmt.Errorf("searchdex: parse search reply: %w", err)
	}
	return parseSearchResult(arr, false, i.schema)
}

// Count runs a count query and returns the matching total.
func (i *SearchIndex) Count(ctx context.Context, q *query.CountQuery) (int, error) {
	res, err := i.Search(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (i *SearchIndex) observe(op string, start time.Time, err *error) {
	i.rec.Observe(op, time.Since(start), *err)
}
