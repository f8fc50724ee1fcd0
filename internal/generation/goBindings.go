package generation

import (
	"bytes"
	"fmt"
	"strings"

	"fntablegen/internal"
	"fntablegen/internal/config"
	"fntablegen/internal/schema"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
)

// The map of flat C types to Go equivalents
var builtInFlatTypes = map[string]string{
	"bool":     "bool",
	"char":     "int8",
	"int":      "int32",
	"long":     "int64",
	"float":    "float32",
	"real_t":   "float32",
	"double":   "float64",
	"size_t":   "uintptr",
	"int8_t":   "int8",
	"int16_t":  "int16",
	"int32_t":  "int32",
	"int64_t":  "int64",
	"uint8_t":  "uint8",
	"uint16_t": "uint16",
	"uint32_t": "uint32",
	"uint64_t": "uint64",
}

// GoBindings writes a Go package mirroring the C call table described by
// a schema document.
type GoBindings struct {
	config  *config.Config
	structs map[string]bool
}

func NewGoBindings(cfg *config.Config) *GoBindings {
	return &GoBindings{config: cfg}
}

// Emit renders the package source for document.
func (bindings *GoBindings) Emit(document *schema.Document) ([]byte, error) {
	bindings.structs = make(map[string]bool, len(document.Structs))
	for _, s := range document.Structs {
		bindings.structs[s.Name] = true
	}

	file := jen.NewFile(bindings.config.Bindings.Package)
	file.HeaderComment(generatedNotice)

	for _, s := range document.Structs {
		if err := bindings.generateStruct(s, file); err != nil {
			return nil, err
		}
	}

	if err := bindings.generateTable(document, file); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	if err := file.Render(&buffer); err != nil {
		return nil, errors.Wrap(err, "rendering go bindings")
	}
	return buffer.Bytes(), nil
}

func (bindings *GoBindings) generateStruct(s schema.Struct, file *jen.File) error {
	var fieldErr error
	file.Commentf("%s mirrors struct %s.", internal.ToPascalCase(s.Name), s.Name)
	file.
		Type().
		Id(internal.ToPascalCase(s.Name)).
		StructFunc(func(g *jen.Group) {
			for _, field := range s.Fields {
				typ, err := bindings.goType(field.Type)
				if err != nil {
					fieldErr = errors.Wrapf(err, "struct %s field %s", s.Name, field.Name)
					return
				}
				g.Id(internal.ToPascalCase(field.Name)).Add(typ)
			}
		}).
		Line()
	return fieldErr
}

func (bindings *GoBindings) generateTable(document *schema.Document, file *jen.File) error {
	tableName := bindings.config.Bindings.StructName

	var slotErr error
	file.Commentf("%s mirrors struct %s. Every slot holds a C function pointer, zero when unset.",
		tableName, bindings.config.TableName)
	file.Type().Id(tableName).StructFunc(func(g *jen.Group) {
		for _, method := range document.Methods {
			if err := bindings.checkSignature(method); err != nil {
				slotErr = err
				return
			}
			g.Id(internal.ToPascalCase(method.Name)).Uintptr().Comment(cSignature(method))
		}
	})
	if slotErr != nil {
		return slotErr
	}
	file.Line()

	file.Comment("SlotNames lists the C names of the slots in struct order.")
	file.Var().Id("SlotNames").Op("=").Index(jen.Lit(len(document.Methods))).String().ValuesFunc(func(g *jen.Group) {
		for _, method := range document.Methods {
			g.Line().Lit(method.Name)
		}
		g.Line()
	})

	file.Comment("Implemented reports whether the slot with the given C name is populated.")
	file.Func().Params(jen.Id("t").Op("*").Id(tableName)).Id("Implemented").Params(jen.Id("name").String()).Bool().BlockFunc(func(g *jen.Group) {
		g.Switch(jen.Id("name")).BlockFunc(func(g *jen.Group) {
			for _, method := range document.Methods {
				g.Case(jen.Lit(method.Name)).Block(
					jen.Return(jen.Id("t").Dot(internal.ToPascalCase(method.Name)).Op("!=").Lit(0)),
				)
			}
		})
		g.Return(jen.False())
	})
	return nil
}

// checkSignature makes sure every type of a slot has a Go spelling.
func (bindings *GoBindings) checkSignature(method schema.Method) error {
	if method.ReturnType != "void" {
		if _, err := bindings.goType(method.ReturnType); err != nil {
			return errors.Wrapf(err, "method %s return type", method.Name)
		}
	}
	for _, arg := range method.Arguments {
		if _, err := bindings.goType(arg.Type); err != nil {
			return errors.Wrapf(err, "method %s argument %s", method.Name, arg.Name)
		}
	}
	return nil
}

// goType maps a flat C type to a Go type of the same size and layout.
func (bindings *GoBindings) goType(cType string) (jen.Code, error) {
	base, pointer := internal.TrimPointer(cType)
	if pointer {
		return jen.Qual("unsafe", "Pointer"), nil
	}
	base = strings.TrimPrefix(base, "const ")

	switch base {
	case bindings.config.IndexType, bindings.config.MaybeIndexType:
		return jen.Uint64(), nil
	}
	if goName, found := builtInFlatTypes[base]; found {
		return jen.Id(goName), nil
	}
	if name, found := strings.CutPrefix(base, "struct "); found && bindings.structs[name] {
		return jen.Id(internal.ToPascalCase(name)), nil
	}
	if size, found := bindings.config.Bindings.Opaque[base]; found {
		return jen.Index(jen.Lit(size)).Byte(), nil
	}
	return nil, errors.WithHint(
		errors.Newf("no Go type for %q", cType),
		"add the type to [bindings.opaque] with its size in bytes")
}

func cSignature(method schema.Method) string {
	arguments := make([]string, len(method.Arguments))
	for i, arg := range method.Arguments {
		arguments[i] = fmt.Sprintf("%s %s", arg.Type, arg.Name)
	}
	return fmt.Sprintf("%s (%s)", method.ReturnType, strings.Join(arguments, ", "))
}
