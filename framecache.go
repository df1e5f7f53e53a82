package trellis

import (
	"context"
	"fmt"
	"path"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// cacheVersion is bumped whenever the cached encoding changes so stale
// entries are rebuilt instead of misread.
const cacheVersion = 1

// FrameCache stores derived tables through a StorageBackend so expensive
// stages (joins, event distances, rolling windows) can be skipped on
// re-runs over unchanged inputs. Entries are msgpack-encoded and snappy
// compressed.
type FrameCache struct {
	backend StorageBackend
	prefix  string
}

// NewFrameCache creates a cache writing under keyPrefix in backend.
func NewFrameCache(backend StorageBackend, keyPrefix string) *FrameCache {
	return &FrameCache{backend: backend, prefix: keyPrefix}
}

type cachedValue struct {
	K uint8   `msgpack:"k"`
	I int64   `msgpack:"i,omitempty"`
	F float64 `msgpack:"f,omitempty"`
	S string  `msgpack:"s,omitempty"`
}

type cachedTable struct {
	Version int             `msgpack:"v"`
	Name    string          `msgpack:"n"`
	Columns []string        `msgpack:"c"`
	Rows    [][]cachedValue `msgpack:"r"`
}

func (c *FrameCache) key(name string) string {
	return path.Join(c.prefix, name+".tbl.sz")
}

// Put stores a table under name, overwriting any previous entry.
func (c *FrameCache) Put(ctx context.Context, name string, t *Table) error {
	ct := cachedTable{
		Version: cacheVersion,
		Name:    t.Name(),
		Columns: t.Columns(),
		Rows:    make([][]cachedValue, t.NumRows()),
	}
	for r := 0; r < t.NumRows(); r++ {
		row := make([]cachedValue, t.NumCols())
		for col := 0; col < t.NumCols(); col++ {
			row[col] = encodeCachedValue(t.At(r, col))
		}
		ct.Rows[r] = row
	}
	raw, err := msgpack.Marshal(&ct)
	if err != nil {
		return fmt.Errorf("failed to encode cached table %q: %w", name, err)
	}
	return c.backend.Write(ctx, c.key(name), snappy.Encode(nil, raw))
}

// Get loads a previously cached table. The second return value is false
// when no usable entry exists, which includes entries written by an older
// encoding version.
func (c *FrameCache) Get(ctx context.Context, name string) (*Table, bool, error) {
	ok, err := c.backend.Exists(ctx, c.key(name))
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := c.backend.Read(ctx, c.key(name))
	if err != nil {
		return nil, false, err
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress cached table %q: %w", name, err)
	}
	var ct cachedTable
	if err := msgpack.Unmarshal(raw, &ct); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached table %q: %w", name, err)
	}
	if ct.Version != cacheVersion {
		return nil, false, nil
	}
	t := NewTable(ct.Name, ct.Columns...)
	for _, row := range ct.Rows {
		vals := make([]Value, len(row))
		for i, cv := range row {
			vals[i] = decodeCachedValue(cv)
		}
		if err := t.Append(vals...); err != nil {
			return nil, false, err
		}
	}
	return t, true, nil
}

// GetOrBuild returns the cached table for name, or runs build and caches
// its result. Build errors are returned as-is; cache write failures are
// returned after a successful build since the result would be silently
// recomputed forever otherwise.
func (c *FrameCache) GetOrBuild(ctx context.Context, name string, build func() (*Table, error)) (*Table, error) {
	if t, ok, err := c.Get(ctx, name); err != nil {
		return nil, err
	} else if ok {
		return t, nil
	}
	t, err := build()
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Invalidate removes the entry for name. Missing entries are not an error.
func (c *FrameCache) Invalidate(ctx context.Context, name string) error {
	ok, err := c.backend.Exists(ctx, c.key(name))
	if err != nil || !ok {
		return err
	}
	return c.backend.Delete(ctx, c.key(name))
}

func encodeCachedValue(v Value) cachedValue {
	switch v.Kind() {
	case KindInt:
		return cachedValue{K: uint8(KindInt), I: v.Int64()}
	case KindFloat:
		return cachedValue{K: uint8(KindFloat), F: v.Float64()}
	case KindBool:
		n := int64(0)
		if v.BoolVal() {
			n = 1
		}
		return cachedValue{K: uint8(KindBool), I: n}
	case KindDate:
		return cachedValue{K: uint8(KindDate), I: v.Days()}
	case KindString:
		return cachedValue{K: uint8(KindString), S: v.Str()}
	default:
		return cachedValue{K: uint8(KindNull)}
	}
}

func decodeCachedValue(cv cachedValue) Value {
	switch Kind(cv.K) {
	case KindInt:
		return Int(cv.I)
	case KindFloat:
		return Float(cv.F)
	case KindBool:
		return Bool(cv.I != 0)
	case KindDate:
		return DateFromDays(cv.I)
	case KindString:
		return Str(cv.S)
	default:
		return Null()
	}
}
