package generation

import (
	"bytes"
	"strings"
	"text/template"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"

	"github.com/cockroachdb/errors"
)

const generatedNotice = "Code generated by fntablegen. DO NOT EDIT."

var callTableTemplate = template.Must(template.New("call_table").Funcs(template.FuncMap{
	"declare": mapping.Declare,
	"slot":    slotDeclarator,
	"trim":    strings.TrimSpace,
}).Parse(`// {{.Notice}}

#ifndef {{.Guard}}
#define {{.Guard}}
{{with trim .Preamble}}
{{.}}
{{end}}
#ifdef __cplusplus
extern "C" {
#endif
{{range .Structs}}
	struct {{.Name}} {
{{- range .Fields}}
		{{declare .Type .Name}};
{{- end}}
	};
{{end}}
	struct {{.TableName}} {
{{- range .Methods}}
		{{slot .ReturnType .Name}}({{.ParameterList}});
{{- end}}
	};

#ifdef __cplusplus
}
#endif

#endif
`))

type callTableData struct {
	Notice    string
	Guard     string
	Preamble  string
	TableName string
	Structs   []config.StructConfig
	Methods   []*mapping.FlatSignature
}

// slotDeclarator spells the function pointer field. The method qualifier is
// never part of it.
func slotDeclarator(returnType, name string) string {
	if strings.HasSuffix(returnType, "*") {
		return returnType + "(*" + name + ")"
	}
	return returnType + " (*" + name + ")"
}

// EmitCallTable renders the C header declaring the auxiliary structs and the
// struct of function pointers, one slot per method in table order.
func EmitCallTable(cfg *config.Config, methods *mapping.FlatTable) ([]byte, error) {
	data := callTableData{
		Notice:    generatedNotice,
		Guard:     cfg.Output.HeaderGuard,
		Preamble:  cfg.Output.CallTablePreamble,
		TableName: cfg.TableName,
		Structs:   cfg.Structs,
	}
	methods.Each(func(_ string, signature *mapping.FlatSignature) {
		data.Methods = append(data.Methods, signature)
	})

	var buffer bytes.Buffer
	if err := callTableTemplate.Execute(&buffer, data); err != nil {
		return nil, errors.Wrap(err, "rendering call table")
	}
	return buffer.Bytes(), nil
}
