package trellis

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// arrowType maps a column's value kind to its Arrow type. Dates map to
// Date32 (days since epoch), matching the engine's internal representation.
func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindInt:
		return arrow.PrimitiveTypes.Int64
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

// columnKind picks a column's kind from its first non-null cell; an all-null
// column exports as a string column of nulls.
func columnKind(t *Table, col int) Kind {
	for r := 0; r < t.NumRows(); r++ {
		if k := t.At(r, col).Kind(); k != KindNull {
			return k
		}
	}
	return KindString
}

// encodeArrowIPC serializes a table as a single-record Arrow IPC stream.
// Column names are preserved exactly so the downstream encoding stage sees
// stable engineered-column names.
func encodeArrowIPC(t *Table) ([]byte, error) {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	kinds := make([]Kind, len(cols))
	for c, name := range cols {
		kinds[c] = columnKind(t, c)
		fields[c] = arrow.Field{Name: name, Type: arrowType(kinds[c]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for r := 0; r < t.NumRows(); r++ {
		for c := range cols {
			v := t.At(r, c)
			if v.IsNull() {
				builder.Field(c).AppendNull()
				continue
			}
			switch kinds[c] {
			case KindInt:
				builder.Field(c).(*array.Int64Builder).Append(v.Int64())
			case KindFloat:
				builder.Field(c).(*array.Float64Builder).Append(v.Float64())
			case KindBool:
				builder.Field(c).(*array.BooleanBuilder).Append(v.BoolVal())
			case KindDate:
				builder.Field(c).(*array.Date32Builder).Append(arrow.Date32(v.Days()))
			default:
				builder.Field(c).(*array.StringBuilder).Append(v.String())
			}
		}
	}

	record := builder.NewRecordBatch()
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("writing arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}
