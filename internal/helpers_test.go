package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPascalCase(t *testing.T) {
	tests := map[string]string{
		"physics_body_state":        "PhysicsBodyState",
		"joint_create_generic_6dof": "JointCreateGeneric6dof",
		"area__get-shape":           "AreaGetShape",
		"free":                      "Free",
		"":                          "",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ToPascalCase(input), input)
	}
}

func TestTrimPointer(t *testing.T) {
	base, pointer := TrimPointer("const struct physics_ray_info *")
	assert.True(t, pointer)
	assert.Equal(t, "const struct physics_ray_info", base)

	base, pointer = TrimPointer(" index_t ")
	assert.False(t, pointer)
	assert.Equal(t, "index_t", base)
}
