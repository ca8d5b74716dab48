package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.ElementsMatch(t, []string{"a"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")
}

func TestValidateParameters_StringRequired(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []string{"name"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"name": nil}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"name": "x"}, schema))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = RenderTemplate("Hello {{.Name}} <{{upper .Role}}>", map[string]any{"Name": "A&B", "Role": "lead"})
	require.NoError(t, err)
	assert.Equal(t, "Hello A&B <LEAD>", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced plain", "```\n[1,2]\n```", `[1,2]`},
		{"prose around", "Here is the plan: {\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
		{"no json", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestCreateSchema_NestedAndEnum(t *testing.T) {
	type step struct {
		Name string `json:"name"`
	}
	type args struct {
		Mode  string   `json:"mode" enum:"fast,slow"`
		Steps []step   `json:"steps"`
		Tags  []string `json:"tags,omitempty"`
	}

	schema := CreateSchema(&args{})
	props := schema["properties"].(map[string]any)

	mode := props["mode"].(map[string]any)
	assert.Equal(t, []string{"fast", "slow"}, mode["enum"])

	steps := props["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	items := steps["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, []string{"name"}, items["required"])

	assert.Equal(t, []string{"mode", "steps"}, schema["required"])
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, CreateSchema(42))
}

func TestValidateParameters_EnumAndTypeLists(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode":  map[string]any{"type": "string", "enum": []any{"fast", "slow"}},
			"tasks": map[string]any{"type": []string{"array", "string"}},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"mode": "fast"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"mode": "medium"}, schema))

	assert.NoError(t, ValidateParameters(map[string]any{"tasks": "[]"}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"tasks": []any{}}, schema))

	err := ValidateParameters(map[string]any{"tasks": 3.0}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "array or string")
}
