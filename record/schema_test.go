package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidate(t *testing.T) {
	schema := Schema{
		"number": FieldTypeInt,
		"score":  FieldTypeFloat,
		"animal": FieldTypeString,
	}

	require.NoError(t, schema.Validate(Document{
		"number": Int(2),
		"score":  Int(3), // ints upgrade to floats
		"animal": String("lion"),
		"extra":  Bool(true),
	}))
	require.NoError(t, schema.Validate(Document{"number": Null()}))

	err := schema.Validate(Document{"number": String("two")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "number"`)

	assert.NoError(t, Schema(nil).Validate(Document{"x": Int(1)}))
}

func TestSchemaParse(t *testing.T) {
	schema := Schema{
		"number": FieldTypeInt,
		"score":  FieldTypeFloat,
		"zip":    FieldTypeString,
		"active": FieldTypeBool,
		"tags":   FieldTypeArray,
	}

	tests := []struct {
		field, text string
		want        Value
	}{
		{"number", "42", Int(42)},
		{"score", "1.5", Float(1.5)},
		{"zip", "01234", String("01234")},
		{"active", "true", Bool(true)},
		{"tags", `["a","b"]`, Strings("a", "b")},
		{"untyped", "7", Int(7)},
		{"untyped", "lion", String("lion")},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.text, func(t *testing.T) {
			got, err := schema.Parse(tt.field, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.True(t, tt.want.Equal(got))
		})
	}

	_, err := schema.Parse("number", "two")
	assert.Error(t, err)
	_, err = schema.Parse("tags", "7")
	assert.Error(t, err)
}

func TestParseFieldType(t *testing.T) {
	ft, err := ParseFieldType("Integer")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeInt, ft)

	ft, err = ParseFieldType("")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeAny, ft)

	_, err = ParseFieldType("decimal")
	assert.Error(t, err)
}
