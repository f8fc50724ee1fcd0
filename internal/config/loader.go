package config

import (
	_ "embed"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

//go:embed defaults.toml
var defaultsTOML string

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidConfig marks every validation failure reported by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(defaultsTOML, &cfg); err != nil {
		return nil, errors.Wrap(err, "decoding built-in defaults")
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the config file at path on top of the built-in defaults.
// An empty path yields the defaults unchanged. Keys present in the file
// replace the default value, except for tables keyed by type name which
// are merged entry by entry.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	var base Config
	if _, err := toml.Decode(defaultsTOML, &base); err != nil {
		return nil, errors.Wrap(err, "decoding built-in defaults")
	}

	var user Config
	md, err := toml.Decode(string(data), &user)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("config %s: unknown keys %s", path, strings.Join(keys, ", ")), ErrInvalidConfig),
			"check the key spelling against the built-in defaults.toml")
	}

	overlay(reflect.ValueOf(&base).Elem(), reflect.ValueOf(&user).Elem(), md, nil)

	if err := validate(&base); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return &base, nil
}

// overlay copies every value the user file defined onto base. Maps are
// merged so a user file can add a single flattening rule without restating
// the whole table.
func overlay(base, user reflect.Value, md toml.MetaData, path []string) {
	t := base.Type()
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if key == "" {
			continue
		}
		keyPath := append(append([]string{}, path...), key)
		if !md.IsDefined(keyPath...) {
			continue
		}

		dst, src := base.Field(i), user.Field(i)
		switch dst.Kind() {
		case reflect.Struct:
			overlay(dst, src, md, keyPath)
		case reflect.Map:
			if dst.IsNil() {
				dst.Set(reflect.MakeMap(dst.Type()))
			}
			iter := src.MapRange()
			for iter.Next() {
				dst.SetMapIndex(iter.Key(), iter.Value())
			}
		default:
			dst.Set(src)
		}
	}
}

func validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateNames,
		validateQualify,
		validateDuplicatePolicy,
		validateCustomEntries,
		validateStructs,
		validateOutput,
		validateBindings,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.Mark(err, ErrInvalidConfig)
		}
	}
	return nil
}

func validateNames(cfg *Config) error {
	required := map[string]string{
		"class_name":       cfg.ClassName,
		"table_name":       cfg.TableName,
		"handle_type":      cfg.HandleType,
		"index_type":       cfg.IndexType,
		"maybe_index_type": cfg.MaybeIndexType,
	}
	for _, key := range []string{"class_name", "table_name", "handle_type", "index_type", "maybe_index_type"} {
		if !identifierPattern.MatchString(required[key]) {
			return errors.Newf("%s must be a C identifier, got %q", key, required[key])
		}
	}
	if cfg.IndexType == cfg.MaybeIndexType {
		return errors.Newf("index_type and maybe_index_type must differ, both are %q", cfg.IndexType)
	}
	return nil
}

func validateQualify(cfg *Config) error {
	seen := make(map[string]string)
	groups := []struct {
		kind  string
		names []string
	}{
		{"enums", cfg.Qualify.Enums},
		{"structs", cfg.Qualify.Structs},
		{"names", cfg.Qualify.Names},
	}
	for _, group := range groups {
		for _, name := range group.names {
			if !identifierPattern.MatchString(name) {
				return errors.Newf("qualify.%s: %q is not an identifier", group.kind, name)
			}
			if prev, ok := seen[name]; ok {
				return errors.Newf("qualify: %q listed in both %s and %s", name, prev, group.kind)
			}
			seen[name] = group.kind
		}
	}
	for name := range cfg.EnumDefaults {
		if !cfg.IsEnum(name) {
			return errors.WithHint(
				errors.Newf("enum_defaults: %q is not listed in qualify.enums", name),
				"add the enum to [qualify] enums or drop the default")
		}
	}
	return nil
}

func validateDuplicatePolicy(cfg *Config) error {
	switch cfg.DuplicatePolicy {
	case DuplicateKeepFirstPosition, DuplicateMoveToLast:
		return nil
	}
	return errors.Newf("duplicate_policy must be %q or %q, got %q",
		DuplicateKeepFirstPosition, DuplicateMoveToLast, cfg.DuplicatePolicy)
}

func validateCustomEntries(cfg *Config) error {
	sets := []struct {
		artifact string
		entries  []CustomEntry
	}{
		{"custom.call_table", cfg.Custom.CallTable},
		{"custom.schema", cfg.Custom.Schema},
	}
	for _, set := range sets {
		seen := make(map[string]bool)
		for _, entry := range set.entries {
			if !identifierPattern.MatchString(entry.Name) {
				return errors.Newf("%s: %q is not a method name", set.artifact, entry.Name)
			}
			if seen[entry.Name] {
				return errors.Newf("%s: %q defined more than once", set.artifact, entry.Name)
			}
			seen[entry.Name] = true
			if strings.TrimSpace(entry.ReturnType) == "" {
				return errors.Newf("%s: %q has no return_type", set.artifact, entry.Name)
			}
			if err := validateFields(set.artifact+"."+entry.Name, entry.Args); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateStructs(cfg *Config) error {
	seen := make(map[string]bool)
	for _, s := range cfg.Structs {
		if !identifierPattern.MatchString(s.Name) {
			return errors.Newf("structs: %q is not an identifier", s.Name)
		}
		if seen[s.Name] {
			return errors.Newf("structs: %q defined more than once", s.Name)
		}
		seen[s.Name] = true
		if len(s.Fields) == 0 {
			return errors.Newf("structs: %q has no fields", s.Name)
		}
		if err := validateFields("structs."+s.Name, s.Fields); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(owner string, fields []FieldConfig) error {
	names := make(map[string]bool)
	for _, f := range fields {
		if strings.TrimSpace(f.Type) == "" {
			return errors.Newf("%s: field %q has no type", owner, f.Name)
		}
		if !identifierPattern.MatchString(f.Name) {
			return errors.Newf("%s: %q is not a field name", owner, f.Name)
		}
		if names[f.Name] {
			return errors.Newf("%s: field %q repeated", owner, f.Name)
		}
		names[f.Name] = true
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.SchemaFormat {
	case SchemaFormatJSON, SchemaFormatYAML:
	default:
		return errors.Newf("output.schema_format must be %q or %q, got %q",
			SchemaFormatJSON, SchemaFormatYAML, cfg.Output.SchemaFormat)
	}
	if !identifierPattern.MatchString(cfg.Output.HeaderGuard) {
		return errors.Newf("output.header_guard must be an identifier, got %q", cfg.Output.HeaderGuard)
	}
	for key, value := range map[string]string{
		"output.call_table": cfg.Output.CallTable,
		"output.overrides":  cfg.Output.Overrides,
		"output.schema":     cfg.Output.Schema,
	} {
		if strings.TrimSpace(value) == "" {
			return errors.Newf("%s must not be empty", key)
		}
	}
	return nil
}

func validateBindings(cfg *Config) error {
	if !identifierPattern.MatchString(cfg.Bindings.Package) {
		return errors.Newf("bindings.package must be an identifier, got %q", cfg.Bindings.Package)
	}
	if !identifierPattern.MatchString(cfg.Bindings.StructName) {
		return errors.Newf("bindings.struct_name must be an identifier, got %q", cfg.Bindings.StructName)
	}
	for name, size := range cfg.Bindings.Opaque {
		if size <= 0 {
			return errors.Newf("bindings.opaque.%s must be a positive byte size, got %d", name, size)
		}
	}
	return nil
}
