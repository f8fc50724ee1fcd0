package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() *Document {
	methods := metadata.NewTable[*mapping.FlatSignature]()
	methods.Set("body_create", &mapping.FlatSignature{
		Name:       "body_create",
		ReturnType: "maybe_index_t",
		Arguments:  []mapping.FlatParameter{},
	})
	methods.Set("area_set_transform", &mapping.FlatSignature{
		Name:       "area_set_transform",
		ReturnType: "void",
		Arguments: []mapping.FlatParameter{
			{Type: "index_t", Name: "p_area"},
			{Type: "const godot_transform *", Name: "p_transform", Const: true},
		},
	})
	methods.Set("area_get_shape_count", &mapping.FlatSignature{
		Name:       "area_get_shape_count",
		ReturnType: "int",
		Const:      true,
		Arguments:  []mapping.FlatParameter{{Type: "index_t", Name: "p_area"}},
	})

	return Build(methods, []config.StructConfig{
		{Name: "physics_ray_result", Fields: []config.FieldConfig{{Type: "index_t", Name: "id"}}},
		{Name: "physics_body_state", Fields: []config.FieldConfig{
			{Type: "godot_transform", Name: "transform"},
			{Type: "size_t", Name: "contact_count"},
		}},
	})
}

func TestBuild(t *testing.T) {
	document := testDocument()

	assert.Equal(t, Version, document.Version)
	assert.Equal(t, []string{"body_create", "area_set_transform", "area_get_shape_count"}, document.MethodNames())
	assert.Equal(t, Argument{Type: "const godot_transform *", Name: "p_transform", Const: true}, document.Methods[1].Arguments[1])
	assert.True(t, document.Methods[2].Const)
	assert.Equal(t, "physics_ray_result", document.Structs[0].Name)
}

func TestEncodeJSON(t *testing.T) {
	data, err := Encode(testDocument(), config.SchemaFormatJSON)
	require.NoError(t, err)

	var generic struct {
		Methods []map[string]interface{} `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "maybe_index_t", generic.Methods[0]["return_type"])
	assert.Equal(t, []interface{}{}, generic.Methods[0]["arguments"])

	text := string(data)
	// Struct keys follow authoring order, not lexical order.
	assert.Less(t, strings.Index(text, `"physics_ray_result"`), strings.Index(text, `"physics_body_state"`))
	assert.True(t, strings.HasSuffix(text, "}\n"))

	again, err := Encode(testDocument(), config.SchemaFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, format := range []string{config.SchemaFormatJSON, config.SchemaFormatYAML} {
		t.Run(format, func(t *testing.T) {
			original := testDocument()
			data, err := Encode(original, format)
			require.NoError(t, err)

			decoded, err := Decode(data, format)
			require.NoError(t, err)
			if diff := cmp.Diff(original, decoded); diff != "" {
				t.Errorf("decoded document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeYAMLKeepsStructOrder(t *testing.T) {
	data, err := Encode(testDocument(), config.SchemaFormatYAML)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "return_type: maybe_index_t")
	assert.Contains(t, text, "arguments: []")
	assert.Less(t, strings.Index(text, "physics_ray_result:"), strings.Index(text, "physics_body_state:"))
}

func TestDecodeRejectsVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"newer major", "2.1.0"},
		{"garbage", "latest"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"version": "` + tt.version + `", "methods": [], "structs": {}}`)
			_, err := Decode(data, config.SchemaFormatJSON)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedVersion))
		})
	}

	_, err := Decode([]byte(`{"version": "1.4", "methods": [], "structs": {}}`), config.SchemaFormatJSON)
	assert.NoError(t, err)
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode(testDocument(), "xml")
	assert.Error(t, err)
}
