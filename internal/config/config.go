// Package config holds every table the generator consults: type
// qualification and flattening, default return values, per-artifact
// exclusion sets, custom call-table entries, the validate-all policy and
// the auxiliary structs that cross the boundary.
//
// A Config is built once per run by Load and is never mutated afterwards.
package config

import "slices"

const (
	DuplicateKeepFirstPosition = "keep-first-position"
	DuplicateMoveToLast        = "move-to-last"

	SchemaFormatJSON = "json"
	SchemaFormatYAML = "yaml"
)

type Config struct {
	ClassName       string   `toml:"class_name"`
	TableName       string   `toml:"table_name"`
	HandleType      string   `toml:"handle_type"`
	IndexType       string   `toml:"index_type"`
	MaybeIndexType  string   `toml:"maybe_index_type"`
	DuplicatePolicy string   `toml:"duplicate_policy"`
	DefaultArgs     []string `toml:"default_args"`
	Primitives      []string `toml:"primitives"`
	ValidateAll     []string `toml:"validate_all"`

	Qualify      QualifyConfig     `toml:"qualify"`
	Flatten      map[string]string `toml:"flatten"`
	Defaults     map[string]string `toml:"defaults"`
	EnumDefaults map[string]string `toml:"enum_defaults"`
	Exclude      ExcludeConfig     `toml:"exclude"`
	Custom       CustomConfig      `toml:"custom"`
	Structs      []StructConfig    `toml:"structs"`
	Creation     CreationConfig    `toml:"creation"`
	Handles      HandlesConfig     `toml:"handles"`
	Output       OutputConfig      `toml:"output"`
	Bindings     BindingsConfig    `toml:"bindings"`
}

// QualifyConfig lists the bare names that are scoped to ClassName.
// Enums flatten to int and opaque structs flatten to void * when passed
// by pointer; Names are qualified without any implied flattening rule.
type QualifyConfig struct {
	Enums   []string `toml:"enums"`
	Structs []string `toml:"structs"`
	Names   []string `toml:"names"`
}

type ExcludeConfig struct {
	CallTable []string `toml:"call_table"`
	Overrides []string `toml:"overrides"`
	Schema    []string `toml:"schema"`
}

type CustomConfig struct {
	CallTable []CustomEntry `toml:"call_table"`
	Schema    []CustomEntry `toml:"schema"`
}

// CustomEntry is a hand-authored method, written directly in flat form.
type CustomEntry struct {
	Name       string        `toml:"name"`
	ReturnType string        `toml:"return_type"`
	Const      bool          `toml:"const"`
	Args       []FieldConfig `toml:"args"`
}

type FieldConfig struct {
	Type string `toml:"type"`
	Name string `toml:"name"`
}

type StructConfig struct {
	Name   string        `toml:"name"`
	Fields []FieldConfig `toml:"fields"`
}

// CreationConfig is the naming convention that decides whether a method
// returning a handle registers a new one or looks up an existing one.
type CreationConfig struct {
	Suffixes []string `toml:"suffixes"`
	Prefixes []string `toml:"prefixes"`
}

// HandlesConfig names the host expressions for the handle registry.
type HandlesConfig struct {
	Create                string `toml:"create"`
	Lookup                string `toml:"lookup"`
	IndexOf               string `toml:"index_of"`
	NotImplementedMessage string `toml:"not_implemented_message"`
	InvalidMessage        string `toml:"invalid_message"`
}

type OutputConfig struct {
	Dir               string `toml:"dir"`
	CallTable         string `toml:"call_table"`
	Overrides         string `toml:"overrides"`
	Schema            string `toml:"schema"`
	SchemaFormat      string `toml:"schema_format"`
	GoBindings        string `toml:"go_bindings"`
	HeaderGuard       string `toml:"header_guard"`
	CallTablePreamble string `toml:"call_table_preamble"`
	OverridePreamble  string `toml:"override_preamble"`
}

type BindingsConfig struct {
	Package    string         `toml:"package"`
	StructName string         `toml:"struct_name"`
	Opaque     map[string]int `toml:"opaque"`
}

// IsEnum reports whether the bare name is a qualified enumeration.
func (c *Config) IsEnum(name string) bool {
	return slices.Contains(c.Qualify.Enums, name)
}

// IsValidateAll reports whether every handle argument of method must be valid.
func (c *Config) IsValidateAll(method string) bool {
	return slices.Contains(c.ValidateAll, method)
}

// Qualified returns the fully scoped spelling of a bare enum, struct or
// listed name, and the name unchanged otherwise.
func (c *Config) Qualified(name string) string {
	if slices.Contains(c.Qualify.Enums, name) || slices.Contains(c.Qualify.Structs, name) || slices.Contains(c.Qualify.Names, name) {
		return c.ClassName + "::" + name
	}
	return name
}
