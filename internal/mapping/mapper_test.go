package mapping

import (
	"testing"

	"fntablegen/internal/config"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T) (*Mapper, *metadata.HeaderReader) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return NewMapper(cfg), metadata.NewReader(cfg, nil)
}

func TestFlatten(t *testing.T) {
	mapper, _ := newTestMapper(t)

	tests := []struct {
		name     string
		ref      metadata.TypeRef
		ctx      Context
		expected string
	}{
		{"value struct", metadata.TypeRef{Name: "Transform"}, Context{Position: ParameterPosition}, "godot_transform"},
		{"pointer key is distinct", metadata.TypeRef{Name: "Transform", Pointer: true}, Context{Position: ParameterPosition}, "godot_transform *"},
		{"enum", metadata.TypeRef{Name: "PluggablePhysicsServer::BodyMode"}, Context{Position: ReturnPosition}, "int"},
		{"opaque struct pointer", metadata.TypeRef{Name: "PluggablePhysicsServer::MotionResult", Pointer: true}, Context{Position: ParameterPosition}, "void *"},
		{"handle return", metadata.TypeRef{Name: "RID"}, Context{Position: ReturnPosition}, "maybe_index_t"},
		{"first handle parameter", metadata.TypeRef{Name: "RID"}, Context{Position: ParameterPosition, First: true}, "index_t"},
		{"later handle parameter", metadata.TypeRef{Name: "RID"}, Context{Position: ParameterPosition}, "maybe_index_t"},
		{"validate-all handle parameter", metadata.TypeRef{Name: "RID"}, Context{Position: ParameterPosition, ValidateAll: true}, "index_t"},
		{"primitive", metadata.TypeRef{Name: "real_t"}, Context{Position: ParameterPosition}, "real_t"},
		{"primitive pointer", metadata.TypeRef{Name: "uint8_t", Pointer: true}, Context{Position: ParameterPosition}, "uint8_t *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := mapper.Flatten(tt.ref, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, flat)
		})
	}
}

func TestFlattenUnmapped(t *testing.T) {
	mapper, _ := newTestMapper(t)

	// A value-only struct is illegal behind a pointer unless listed.
	_, err := mapper.Flatten(metadata.TypeRef{Name: "ObjectID", Pointer: true}, Context{Position: ParameterPosition})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmappedType))

	_, err = mapper.Flatten(metadata.TypeRef{Name: "PhysicsDirectBodyState", Pointer: true}, Context{Position: ReturnPosition})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"PhysicsDirectBodyState *"`)
}

func TestFlattenSignature(t *testing.T) {
	mapper, reader := newTestMapper(t)

	tests := []struct {
		name     string
		line     string
		expected *FlatSignature
	}{
		{
			name: "create without parameters",
			line: "virtual RID body_create();",
			expected: &FlatSignature{
				Name:       "body_create",
				ReturnType: "maybe_index_t",
				Arguments:  []FlatParameter{},
			},
		},
		{
			name: "second handle is nullable",
			line: "virtual void body_set_space(RID p_body, RID p_space) = 0;",
			expected: &FlatSignature{
				Name:       "body_set_space",
				ReturnType: "void",
				Arguments: []FlatParameter{
					{Type: "index_t", Name: "p_body"},
					{Type: "maybe_index_t", Name: "p_space"},
				},
			},
		},
		{
			name: "validate-all",
			line: "virtual void body_add_collision_exception(RID p_body, RID p_body_b);",
			expected: &FlatSignature{
				Name:       "body_add_collision_exception",
				ReturnType: "void",
				Arguments: []FlatParameter{
					{Type: "index_t", Name: "p_body"},
					{Type: "index_t", Name: "p_body_b"},
				},
			},
		},
		{
			name: "const kept only behind pointers",
			line: "virtual int body_test_ray_separation(RID p_body, const Transform &p_transform, const bool p_infinite_inertia, Vector3 &r_recover_motion, SeparationResult *r_results, int p_result_max, float p_margin = 0.001);",
			expected: &FlatSignature{
				Name:       "body_test_ray_separation",
				ReturnType: "int",
				Arguments: []FlatParameter{
					{Type: "index_t", Name: "p_body"},
					{Type: "const godot_transform *", Name: "p_transform", Const: true},
					{Type: "bool", Name: "p_infinite_inertia"},
					{Type: "godot_vector3 *", Name: "r_recover_motion"},
					{Type: "void *", Name: "r_results"},
					{Type: "int", Name: "p_result_max"},
					{Type: "float", Name: "p_margin"},
				},
			},
		},
		{
			name: "const method and enum return",
			line: "virtual BodyMode body_get_mode(RID p_body) const;",
			expected: &FlatSignature{
				Name:       "body_get_mode",
				ReturnType: "int",
				Const:      true,
				Arguments: []FlatParameter{
					{Type: "index_t", Name: "p_body"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature, err := reader.ParseDeclaration(tt.line)
			require.NoError(t, err)
			flat, err := mapper.FlattenSignature(signature)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, flat)
		})
	}
}

func TestFlattenTableKeepsOrder(t *testing.T) {
	mapper, reader := newTestMapper(t)
	methods, err := reader.Read([]string{
		"virtual void sync();",
		"virtual RID space_create();",
		"virtual void flush_queries();",
	})
	require.NoError(t, err)

	flat, err := mapper.FlattenTable(methods)
	require.NoError(t, err)
	assert.Equal(t, methods.Names(), flat.Names())

	_, err = mapper.FlattenTable(mustRead(t, reader, "virtual Ref<Mesh> mesh_get(RID p_rid);"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmappedType))
	assert.Contains(t, err.Error(), "mesh_get: return type")
}

func mustRead(t *testing.T, reader *metadata.HeaderReader, lines ...string) *metadata.MethodTable {
	t.Helper()
	methods, err := reader.Read(lines)
	require.NoError(t, err)
	return methods
}

func TestDefaultValue(t *testing.T) {
	mapper, _ := newTestMapper(t)

	tests := []struct {
		ref      metadata.TypeRef
		expected string
	}{
		{metadata.TypeRef{Name: "bool"}, "false"},
		{metadata.TypeRef{Name: "real_t"}, "0.0f"},
		{metadata.TypeRef{Name: "RID"}, "RID()"},
		{metadata.TypeRef{Name: "PluggablePhysicsServer::BodyMode"}, "PluggablePhysicsServer::BODY_MODE_RIGID"},
		{metadata.TypeRef{Name: "PluggablePhysicsServer::BodyState"}, "PluggablePhysicsServer::BodyState(0)"},
		{metadata.TypeRef{Name: "PhysicsDirectSpaceState", Pointer: true}, "nullptr"},
	}
	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			value, err := mapper.DefaultValue(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, err := mapper.DefaultValue(metadata.TypeRef{Name: "Basis"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDefaultValue))
}

func TestConversionAndKinds(t *testing.T) {
	mapper, _ := newTestMapper(t)

	flat, staged := mapper.Conversion(metadata.TypeRef{Name: "Transform", Pointer: true})
	assert.True(t, staged)
	assert.Equal(t, "godot_transform *", flat)

	_, staged = mapper.Conversion(metadata.TypeRef{Name: "PluggablePhysicsServer::BodyMode"})
	assert.False(t, staged)

	assert.True(t, mapper.IsEnum(metadata.TypeRef{Name: "PluggablePhysicsServer::ShapeType"}))
	assert.False(t, mapper.IsEnum(metadata.TypeRef{Name: "PluggablePhysicsServer::MotionResult"}))
	assert.True(t, mapper.IsHandle(metadata.TypeRef{Name: "RID"}))
	assert.False(t, mapper.IsHandle(metadata.TypeRef{Name: "RID", Pointer: true}))
}

func TestParameterList(t *testing.T) {
	signature := &FlatSignature{
		Arguments: []FlatParameter{
			{Type: "index_t", Name: "id"},
			{Type: "struct physics_body_state *", Name: "state"},
		},
	}
	assert.Equal(t, "index_t id, struct physics_body_state *state", signature.ParameterList())
	assert.Equal(t, "", (&FlatSignature{}).ParameterList())
}
