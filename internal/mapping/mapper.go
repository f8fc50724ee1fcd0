// Package mapping flattens rich interface types into their ABI-safe
// equivalents and knows the default value of every rich return type.
package mapping

import (
	"strings"

	"fntablegen/internal/config"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnmappedType marks a type with no flattening rule that is not a primitive.
	ErrUnmappedType = errors.New("unmapped type")
	// ErrNoDefaultValue marks a return type with no fallback value for the
	// not-implemented guard.
	ErrNoDefaultValue = errors.New("no default value")
)

// Position tells Flatten where a type occurs in a signature.
type Position int

const (
	ReturnPosition Position = iota
	ParameterPosition
)

// Context is the position of a type within one method. First and
// ValidateAll only matter for handle parameters.
type Context struct {
	Position    Position
	First       bool
	ValidateAll bool
}

// Mapper applies the flattening table of one configuration.
type Mapper struct {
	config     *config.Config
	flatten    map[string]string
	primitives map[string]bool
}

func NewMapper(cfg *config.Config) *Mapper {
	flatten := make(map[string]string, len(cfg.Flatten)+len(cfg.Qualify.Enums)+len(cfg.Qualify.Structs))
	for _, enum := range cfg.Qualify.Enums {
		flatten[cfg.Qualified(enum)] = "int"
	}
	for _, s := range cfg.Qualify.Structs {
		flatten[cfg.Qualified(s)+" *"] = "void *"
	}
	// Explicit entries win over the implied ones.
	for rich, flat := range cfg.Flatten {
		flatten[rich] = flat
	}

	primitives := make(map[string]bool, len(cfg.Primitives))
	for _, p := range cfg.Primitives {
		primitives[p] = true
	}

	return &Mapper{
		config:     cfg,
		flatten:    flatten,
		primitives: primitives,
	}
}

// Flatten maps ref to its flat spelling. An exact match in the flattening
// table wins, then the handle rule, then primitives pass through unchanged.
func (m *Mapper) Flatten(ref metadata.TypeRef, ctx Context) (string, error) {
	if flat, found := m.flatten[ref.String()]; found {
		return flat, nil
	}
	if ref.Name == m.config.HandleType && !ref.Pointer {
		return m.handleIndex(ctx), nil
	}
	if m.primitives[ref.Name] {
		return ref.String(), nil
	}
	return "", errors.WithHint(
		errors.Mark(errors.Newf("no flattening rule for %q", ref.String()), ErrUnmappedType),
		"add the type to [flatten], [primitives] or [qualify] in the config")
}

func (m *Mapper) handleIndex(ctx Context) string {
	if ctx.Position == ParameterPosition && (ctx.First || ctx.ValidateAll) {
		return m.config.IndexType
	}
	return m.config.MaybeIndexType
}

// IsHandle reports whether ref is the bare handle type.
func (m *Mapper) IsHandle(ref metadata.TypeRef) bool {
	return ref.Name == m.config.HandleType && !ref.Pointer
}

// IsEnum reports whether ref names a qualified enumeration by value.
func (m *Mapper) IsEnum(ref metadata.TypeRef) bool {
	if ref.Pointer {
		return false
	}
	name, qualified := strings.CutPrefix(ref.Name, m.config.ClassName+"::")
	return qualified && m.config.IsEnum(name)
}

// Conversion returns the flat type of ref when the value must be staged
// through a reinterpretation before dispatch. Only explicit table entries
// need staging; enums and opaque struct pointers are passed through.
func (m *Mapper) Conversion(ref metadata.TypeRef) (string, bool) {
	flat, found := m.config.Flatten[ref.String()]
	return flat, found
}

// FlattenSignature derives the flat form of one parsed method.
func (m *Mapper) FlattenSignature(signature *metadata.Signature) (*FlatSignature, error) {
	returnType, err := m.Flatten(signature.ReturnType, Context{Position: ReturnPosition})
	if err != nil {
		return nil, errors.Wrapf(err, "%s: return type", signature.Name)
	}

	validateAll := m.config.IsValidateAll(signature.Name)
	flat := &FlatSignature{
		Name:       signature.Name,
		ReturnType: returnType,
		Const:      signature.IsConst,
		Arguments:  make([]FlatParameter, 0, len(signature.Parameters)),
	}
	for i, parameter := range signature.Parameters {
		typ, err := m.Flatten(parameter.Type, Context{
			Position:    ParameterPosition,
			First:       i == 0,
			ValidateAll: validateAll,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "%s: parameter %s", signature.Name, parameter.Name)
		}

		// Read-only only means something behind a pointer.
		isConst := parameter.IsConst && strings.HasSuffix(typ, "*")
		if isConst && !strings.HasPrefix(typ, "const ") {
			typ = "const " + typ
		}
		flat.Arguments = append(flat.Arguments, FlatParameter{
			Type:  typ,
			Name:  parameter.Name,
			Const: isConst,
		})
	}
	return flat, nil
}

// FlattenTable flattens every method, keeping the order of methods.
func (m *Mapper) FlattenTable(methods *metadata.MethodTable) (*FlatTable, error) {
	flat := metadata.NewTable[*FlatSignature]()
	for _, name := range methods.Names() {
		signature, _ := methods.Get(name)
		flatSignature, err := m.FlattenSignature(signature)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", signature.Line)
		}
		flat.Set(name, flatSignature)
	}
	return flat, nil
}

// DefaultValue is what a guarded method returns when its slot is empty.
func (m *Mapper) DefaultValue(ref metadata.TypeRef) (string, error) {
	if ref.Pointer {
		return "nullptr", nil
	}
	if value, found := m.config.Defaults[ref.Name]; found {
		return value, nil
	}
	if m.IsEnum(ref) {
		bare := strings.TrimPrefix(ref.Name, m.config.ClassName+"::")
		if variant, found := m.config.EnumDefaults[bare]; found {
			return m.config.ClassName + "::" + variant, nil
		}
		return ref.Name + "(0)", nil
	}
	return "", errors.WithHint(
		errors.Mark(errors.Newf("no default value for return type %q", ref.Name), ErrNoDefaultValue),
		"add the type to [defaults] in the config")
}
