package mapping

import (
	"strings"

	"fntablegen/internal/metadata"
)

// FlatParameter is one argument in its ABI-safe form. Type already carries
// the "const " prefix when Const is set.
type FlatParameter struct {
	Type  string
	Name  string
	Const bool
}

// FlatSignature is a method as it crosses the boundary.
type FlatSignature struct {
	Name       string
	ReturnType string
	// Const is the method qualifier. It has no meaning on a free function
	// and only survives into the schema.
	Const     bool
	Arguments []FlatParameter
	// Custom is set for hand-authored entries.
	Custom bool
}

// FlatTable is the flattened view of a MethodTable.
type FlatTable = metadata.Table[*FlatSignature]

// ParameterList renders the arguments as a C parameter list, without parentheses.
func (s *FlatSignature) ParameterList() string {
	parts := make([]string, len(s.Arguments))
	for i, arg := range s.Arguments {
		parts[i] = Declare(arg.Type, arg.Name)
	}
	return strings.Join(parts, ", ")
}

// Declare joins a C type and a name, attaching pointer sigils to the name.
func Declare(typ, name string) string {
	if strings.HasSuffix(typ, "*") {
		return typ + name
	}
	return typ + " " + name
}
