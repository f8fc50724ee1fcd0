package generation

import (
	"testing"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"
	"fntablegen/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitCallTable(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Output.CallTablePreamble = "#include \"index.h\"\n"
	cfg.Structs = []config.StructConfig{
		{Name: "physics_area_monitor_event", Fields: []config.FieldConfig{
			{Type: "index_t", Name: "id"},
			{Type: "const index_t *", Name: "exclude"},
		}},
	}

	methods := metadata.NewTable[*mapping.FlatSignature]()
	methods.Set("sync", &mapping.FlatSignature{Name: "sync", ReturnType: "void"})
	methods.Set("shape_get_data", &mapping.FlatSignature{
		Name:       "shape_get_data",
		ReturnType: "void *",
		Const:      true,
		Arguments: []mapping.FlatParameter{
			{Type: "index_t", Name: "p_shape"},
			{Type: "const godot_transform *", Name: "p_transform", Const: true},
		},
	})

	header, err := EmitCallTable(cfg, methods)
	require.NoError(t, err)
	assert.Equal(t, `// Code generated by fntablegen. DO NOT EDIT.

#ifndef PLUGGABLE_PHYSICS_SERVER_FN_TABLE_H
#define PLUGGABLE_PHYSICS_SERVER_FN_TABLE_H

#include "index.h"

#ifdef __cplusplus
extern "C" {
#endif

	struct physics_area_monitor_event {
		index_t id;
		const index_t *exclude;
	};

	struct fn_table {
		void (*sync)();
		void *(*shape_get_data)(index_t p_shape, const godot_transform *p_transform);
	};

#ifdef __cplusplus
}
#endif

#endif
`, string(header))
}

func TestEmitCallTableWithoutPreambleOrStructs(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Output.CallTablePreamble = ""
	cfg.Structs = nil

	header, err := EmitCallTable(cfg, metadata.NewTable[*mapping.FlatSignature]())
	require.NoError(t, err)
	assert.Equal(t, `// Code generated by fntablegen. DO NOT EDIT.

#ifndef PLUGGABLE_PHYSICS_SERVER_FN_TABLE_H
#define PLUGGABLE_PHYSICS_SERVER_FN_TABLE_H

#ifdef __cplusplus
extern "C" {
#endif

	struct fn_table {
	};

#ifdef __cplusplus
}
#endif

#endif
`, string(header))
}
