package parquet

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ballastio/ballast/pkg/dataset"
	"github.com/ballastio/ballast/pkg/errors"
)

// toArrowSchema converts a dataset schema to an arrow schema
func toArrowSchema(schema *dataset.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(schema.Fields))

	for _, f := range schema.Fields {
		arrowType, err := toArrowType(f.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to convert field "+f.Name)
		}
		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     arrowType,
			Nullable: true,
		})
	}

	return arrow.NewSchema(fields, nil), nil
}

func toArrowType(t dataset.FieldType) (arrow.DataType, error) {
	switch t {
	case dataset.FieldTypeString:
		return arrow.BinaryTypes.String, nil
	case dataset.FieldTypeInt:
		return arrow.PrimitiveTypes.Int64, nil
	case dataset.FieldTypeFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case dataset.FieldTypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case dataset.FieldTypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	case dataset.FieldTypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "unsupported field type %q", t)
	}
}

// fromArrowSchema converts an arrow schema back to dataset fields
func fromArrowSchema(schema *arrow.Schema) []dataset.Field {
	fields := make([]dataset.Field, 0, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		fields = append(fields, dataset.Field{
			Name:     f.Name,
			Type:     fromArrowType(f.Type),
			Nullable: f.Nullable,
		})
	}
	return fields
}

func fromArrowType(t arrow.DataType) dataset.FieldType {
	switch t.ID() {
	case arrow.BOOL:
		return dataset.FieldTypeBool
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return dataset.FieldTypeInt
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return dataset.FieldTypeFloat
	case arrow.DATE32, arrow.DATE64:
		return dataset.FieldTypeDate
	case arrow.TIMESTAMP:
		return dataset.FieldTypeTimestamp
	default:
		return dataset.FieldTypeString
	}
}

// appendValue appends one typed value to an arrow array builder
func appendValue(b array.Builder, t dataset.FieldType, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.BooleanBuilder:
		val, ok := dataset.AsBool(v)
		if !ok {
			return errors.Newf(errors.ErrorTypeData, "value %v is not a boolean", v)
		}
		builder.Append(val)

	case *array.Int64Builder:
		val, ok := dataset.AsInt64(v)
		if !ok {
			return errors.Newf(errors.ErrorTypeData, "value %v is not an integer", v)
		}
		builder.Append(val)

	case *array.Float64Builder:
		val, ok := dataset.AsFloat64(v)
		if !ok {
			return errors.Newf(errors.ErrorTypeData, "value %v is not a float", v)
		}
		builder.Append(val)

	case *array.StringBuilder:
		builder.Append(dataset.Format(t, v))

	case *array.TimestampBuilder:
		ts, ok := dataset.AsTime(v)
		if !ok {
			return errors.Newf(errors.ErrorTypeData, "value %v is not a timestamp", v)
		}
		builder.Append(arrow.Timestamp(ts.UnixNano()))

	case *array.Date32Builder:
		ts, ok := dataset.AsTime(v)
		if !ok {
			return errors.Newf(errors.ErrorTypeData, "value %v is not a date", v)
		}
		builder.Append(arrow.Date32FromTime(ts))

	default:
		return errors.Newf(errors.ErrorTypeData, "unsupported builder type %T", b)
	}

	return nil
}
