package generation

import (
	"testing"

	"fntablegen/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoBindings(t *testing.T) {
	cfg := defaultConfig(t)
	document := &schema.Document{
		Version: schema.Version,
		Methods: []schema.Method{
			{Name: "body_create", ReturnType: "maybe_index_t", Arguments: []schema.Argument{}},
			{Name: "body_get_direct_state", ReturnType: "void", Arguments: []schema.Argument{
				{Type: "index_t", Name: "id"},
				{Type: "struct physics_body_state *", Name: "state"},
			}},
		},
		Structs: schema.StructList{
			{Name: "physics_body_state", Fields: []schema.Field{
				{Type: "godot_transform", Name: "transform"},
				{Type: "real_t", Name: "inv_mass"},
				{Type: "maybe_index_t", Name: "space"},
				{Type: "const index_t *", Name: "exclude"},
			}},
		},
	}

	source, err := NewGoBindings(cfg).Emit(document)
	require.NoError(t, err)
	text := string(source)

	assert.Contains(t, text, "// Code generated by fntablegen. DO NOT EDIT.")
	assert.Contains(t, text, "package physicsffi")
	assert.Regexp(t, `Transform\s+\[48\]byte`, text)
	assert.Regexp(t, `InvMass\s+float32`, text)
	assert.Regexp(t, `Space\s+uint64`, text)
	assert.Regexp(t, `Exclude\s+unsafe\.Pointer`, text)
	assert.Regexp(t, `BodyGetDirectState\s+uintptr // void \(index_t id, struct physics_body_state \* state\)`, text)
	assert.Contains(t, text, `var SlotNames = [2]string{`)
	assert.Contains(t, text, `case "body_create":`)
}

func TestGoBindingsUnknownType(t *testing.T) {
	document := &schema.Document{
		Methods: []schema.Method{
			{Name: "shape_get_data", ReturnType: "godot_dictionary"},
		},
	}

	_, err := NewGoBindings(defaultConfig(t)).Emit(document)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no Go type for "godot_dictionary"`)
}
