package generation

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
)

var overridesTemplate = template.Must(template.New("overrides").Funcs(template.FuncMap{
	"trim": strings.TrimSpace,
}).Parse(`// {{.Notice}}
{{with trim .Preamble}}
{{.}}
{{end}}
{{- range .Bodies}}
{{.Header}} {
{{- range .Statements}}
	{{.}}
{{- end}}
}
{{end -}}
`))

type overridesData struct {
	Notice   string
	Preamble string
	Bodies   []overrideBody
}

type overrideBody struct {
	Header     string
	Statements []string
}

// OverrideEmitter renders the forwarding implementation of every method.
// It works on the rich signatures and flattens them itself, so the staged
// values always agree with the call table slots.
type OverrideEmitter struct {
	config *config.Config
	mapper *mapping.Mapper
}

func NewOverrideEmitter(cfg *config.Config, mapper *mapping.Mapper) *OverrideEmitter {
	return &OverrideEmitter{config: cfg, mapper: mapper}
}

// Emit renders one body per method in table order.
func (emitter *OverrideEmitter) Emit(methods *metadata.MethodTable) ([]byte, error) {
	data := overridesData{
		Notice:   generatedNotice,
		Preamble: emitter.config.Output.OverridePreamble,
	}
	for _, name := range methods.Names() {
		signature, _ := methods.Get(name)
		body, err := emitter.body(signature)
		if err != nil {
			return nil, errors.Wrapf(err, "override %s (line %d)", name, signature.Line)
		}
		data.Bodies = append(data.Bodies, body)
	}

	var buffer bytes.Buffer
	if err := overridesTemplate.Execute(&buffer, data); err != nil {
		return nil, errors.Wrap(err, "rendering overrides")
	}
	return buffer.Bytes(), nil
}

func (emitter *OverrideEmitter) body(signature *metadata.Signature) (overrideBody, error) {
	flat, err := emitter.mapper.FlattenSignature(signature)
	if err != nil {
		return overrideBody{}, err
	}

	returnsVoid := signature.ReturnType.Name == "void" && !signature.IsPointerReturn
	var defaultValue string
	if !returnsVoid {
		if defaultValue, err = emitter.mapper.DefaultValue(signature.ReturnType); err != nil {
			return overrideBody{}, err
		}
	}
	fail := func(condition, message string) string {
		if returnsVoid {
			return fmt.Sprintf("ERR_FAIL_COND_MSG(%s, %q);", condition, message)
		}
		return fmt.Sprintf("ERR_FAIL_COND_V_MSG(%s, %s, %q);", condition, defaultValue, message)
	}

	slot := emitter.config.TableName + "." + signature.Name
	handles := emitter.config.Handles
	statements := []string{fail("!"+slot, handles.NotImplementedMessage)}

	arguments := make([]string, len(signature.Parameters))
	for i, parameter := range signature.Parameters {
		arguments[i] = parameter.Name
		if _, staged := emitter.mapper.Conversion(parameter.Type); !staged {
			continue
		}
		// The argument type carries const when the parameter does.
		flatType := flat.Arguments[i].Type
		staging := parameter.Name + "_sys"
		switch parameter.Indirection {
		case metadata.ByReference:
			statements = append(statements, fmt.Sprintf("%s = reinterpret_cast<%s>(&%s);",
				mapping.Declare(flatType, staging), flatType, parameter.Name))
		case metadata.ByPointer:
			statements = append(statements, fmt.Sprintf("%s = reinterpret_cast<%s>(%s);",
				mapping.Declare(flatType, staging), flatType, parameter.Name))
		default:
			statements = append(statements, fmt.Sprintf("%s = *reinterpret_cast<const %s *>(&%s);",
				mapping.Declare(flatType, staging), flatType, parameter.Name))
		}
		arguments[i] = staging
	}

	for i, parameter := range signature.Parameters {
		if !emitter.mapper.IsHandle(parameter.Type) {
			continue
		}
		index := parameter.Name + "_index"
		indexType := flat.Arguments[i].Type
		statements = append(statements, fmt.Sprintf("%s %s = %s(%s);", indexType, index, handles.IndexOf, parameter.Name))
		if indexType == emitter.config.IndexType {
			statements = append(statements, fail(index+" == 0", handles.InvalidMessage))
		}
		arguments[i] = index
	}

	call := fmt.Sprintf("(*%s)(%s)", slot, strings.Join(arguments, ", "))
	statements = append(statements, emitter.result(signature, flat, call, returnsVoid)...)

	return overrideBody{
		Header:     emitter.header(signature),
		Statements: statements,
	}, nil
}

// result dispatches through the slot and converts the flat result back.
func (emitter *OverrideEmitter) result(signature *metadata.Signature, flat *mapping.FlatSignature, call string, returnsVoid bool) []string {
	returnType := signature.ReturnType
	switch {
	case returnsVoid:
		return []string{call + ";"}
	case emitter.mapper.IsEnum(returnType):
		return []string{fmt.Sprintf("return %s(%s);", returnType.Name, call)}
	case signature.Resolution != metadata.ResolveNone:
		registry := emitter.config.Handles.Lookup
		if signature.Resolution == metadata.ResolveCreate {
			registry = emitter.config.Handles.Create
		}
		return []string{
			fmt.Sprintf("%s index = %s;", flat.ReturnType, call),
			fmt.Sprintf("return %s(index);", registry),
		}
	}
	if _, staged := emitter.mapper.Conversion(returnType); staged && !returnType.Pointer {
		return []string{
			fmt.Sprintf("%s = %s;", mapping.Declare(flat.ReturnType, "result"), call),
			fmt.Sprintf("return *reinterpret_cast<%s *>(&result);", returnType.Name),
		}
	}
	return []string{fmt.Sprintf("return %s;", call)}
}

func (emitter *OverrideEmitter) header(signature *metadata.Signature) string {
	parameters := make([]string, len(signature.Parameters))
	for i, parameter := range signature.Parameters {
		parameters[i] = parameter.Declaration()
	}
	header := fmt.Sprintf("%s(%s)",
		mapping.Declare(signature.ReturnType.String(), emitter.config.ClassName+"::"+signature.Name),
		strings.Join(parameters, ", "))
	if signature.IsConst {
		header += " const"
	}
	return header
}
