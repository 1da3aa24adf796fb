package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ballastio/ballast/pkg/errors"
)

func testFields() []Field {
	return []Field{
		{Name: "id", Type: FieldTypeInt},
		{Name: "name", Type: FieldTypeString, Nullable: true},
		{Name: "score", Type: FieldTypeFloat, Nullable: true},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr bool
	}{
		{
			name:   "valid schema",
			fields: testFields(),
		},
		{
			name:   "empty schema",
			fields: nil,
		},
		{
			name: "duplicate column name",
			fields: []Field{
				{Name: "id", Type: FieldTypeInt},
				{Name: "id", Type: FieldTypeString},
			},
			wantErr: true,
		},
		{
			name: "empty column name",
			fields: []Field{
				{Name: "", Type: FieldTypeInt},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := New("events", tt.fields)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "events", ds.Name)
			assert.Equal(t, len(tt.fields), ds.NumCols())
			assert.Equal(t, 0, ds.NumRows())
		})
	}
}

func TestAppendRowAndAccess(t *testing.T) {
	ds, err := New("events", testFields())
	require.NoError(t, err)

	require.NoError(t, ds.AppendRow(int64(1), "alice", 9.5))
	require.NoError(t, ds.AppendRow(int64(2), "bob", nil))

	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, 3, ds.NumCols())

	assert.Equal(t, int64(1), ds.Value(0, "id"))
	assert.Equal(t, "bob", ds.Value(1, "name"))
	assert.Nil(t, ds.Value(1, "score"))
	assert.Nil(t, ds.Value(0, "missing"))

	assert.Equal(t, []interface{}{int64(2), "bob", nil}, ds.Row(1))

	col, ok := ds.Column("name")
	require.True(t, ok)
	assert.Equal(t, FieldTypeString, col.Type)
	assert.Len(t, col.Values, 2)

	_, ok = ds.Column("missing")
	assert.False(t, ok)

	assert.Equal(t, "id", ds.ColumnAt(0).Name)
}

func TestAppendRowArityMismatch(t *testing.T) {
	ds, err := New("events", testFields())
	require.NoError(t, err)

	err = ds.AppendRow(int64(1), "alice")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	assert.Equal(t, 0, ds.NumRows())
}

func TestValidateRaggedColumns(t *testing.T) {
	ds, err := New("events", testFields())
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow(int64(1), "alice", 1.0))

	// Corrupt one column directly
	col, ok := ds.Column("score")
	require.True(t, ok)
	col.Values = append(col.Values, 2.0)

	err = ds.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSchema(t *testing.T) {
	ds, err := New("events", testFields())
	require.NoError(t, err)

	schema := ds.Schema()
	assert.Equal(t, "events", schema.Name)
	assert.Equal(t, []string{"id", "name", "score"}, schema.Names())

	f, ok := schema.Field("score")
	require.True(t, ok)
	assert.Equal(t, FieldTypeFloat, f.Type)
	assert.True(t, f.Nullable)

	_, ok = schema.Field("missing")
	assert.False(t, ok)

	set := schema.NameSet()
	assert.Len(t, set, 3)
	assert.Contains(t, set, "id")
}

func TestTypeCategory(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		category  TypeCategory
	}{
		{FieldTypeString, CategoryText},
		{FieldTypeInt, CategoryNumeric},
		{FieldTypeFloat, CategoryNumeric},
		{FieldTypeBool, CategoryBoolean},
		{FieldTypeTimestamp, CategoryTemporal},
		{FieldTypeDate, CategoryTemporal},
		{FieldType("blob"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.fieldType.Category())
		})
	}
}
