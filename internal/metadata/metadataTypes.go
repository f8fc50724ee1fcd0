// The package used for describing the abstract interface read from a header.
package metadata

import "strings"

// TypeRef is a symbolic type name with zero or one trailing indirection.
type TypeRef struct {
	Name    string
	Pointer bool
}

// String gives the spelling used as a flattening key, e.g. "Transform *".
func (t TypeRef) String() string {
	if t.Pointer {
		return t.Name + " *"
	}
	return t.Name
}

// Indirection records how a parameter was declared in the source.
type Indirection int

const (
	ByValue Indirection = iota
	ByReference
	ByPointer
)

type Parameter struct {
	// Type carries the indirection of the parameter: a reference or a
	// pointer both flatten through the "Name *" key.
	Type        TypeRef
	Name        string
	IsConst     bool
	Indirection Indirection
}

// IsIndirect reports whether the parameter was declared as a reference or pointer.
func (p Parameter) IsIndirect() bool {
	return p.Indirection != ByValue
}

// Declaration renders the parameter the way it appears in a definition,
// without any default argument.
func (p Parameter) Declaration() string {
	var b strings.Builder
	if p.IsConst {
		b.WriteString("const ")
	}
	b.WriteString(p.Type.Name)
	switch p.Indirection {
	case ByReference:
		b.WriteString(" &")
	case ByPointer:
		b.WriteString(" *")
	default:
		b.WriteString(" ")
	}
	b.WriteString(p.Name)
	return b.String()
}

// ResolutionKind tells how a returned handle index is turned back into a handle.
type ResolutionKind int

const (
	// ResolveNone is used for methods that do not return a handle.
	ResolveNone ResolutionKind = iota
	// ResolveCreate registers a fresh handle for the returned index.
	ResolveCreate
	// ResolveLookup finds the handle previously registered for the index.
	ResolveLookup
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolveCreate:
		return "create"
	case ResolveLookup:
		return "lookup"
	}
	return "none"
}

// Signature is one abstract method in its rich, unflattened form.
type Signature struct {
	Name string
	// ReturnType.Pointer is set together with IsPointerReturn.
	ReturnType      TypeRef
	IsPointerReturn bool
	IsConst         bool
	Parameters      []Parameter
	Resolution      ResolutionKind
	// Line is the 1-based source line the declaration was read from.
	Line int
}

// MethodTable is the parsed interface, in declaration order.
type MethodTable = Table[*Signature]

// Table is an insertion-ordered mapping from method name to T. The order
// of Names is the canonical slot order of every generated artifact.
type Table[T any] struct {
	names []string
	items map[string]T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{items: make(map[string]T)}
}

// Set stores value under name. An existing entry keeps its position.
func (t *Table[T]) Set(name string, value T) {
	if _, found := t.items[name]; !found {
		t.names = append(t.names, name)
	}
	t.items[name] = value
}

// Append stores value under name as the last entry, moving an existing one.
func (t *Table[T]) Append(name string, value T) {
	t.Delete(name)
	t.Set(name, value)
}

func (t *Table[T]) Get(name string) (value T, found bool) {
	value, found = t.items[name]
	return value, found
}

func (t *Table[T]) Has(name string) bool {
	_, found := t.items[name]
	return found
}

func (t *Table[T]) Delete(name string) {
	if _, found := t.items[name]; !found {
		return
	}
	delete(t.items, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i:i], t.names[i+1:]...)
			break
		}
	}
}

func (t *Table[T]) Len() int {
	return len(t.names)
}

// Names returns a copy of the keys in order.
func (t *Table[T]) Names() []string {
	return append([]string(nil), t.names...)
}

// Each calls action for every entry in order.
func (t *Table[T]) Each(action func(name string, value T)) {
	for _, name := range t.names {
		action(name, t.items[name])
	}
}

// Filter returns a new table holding the entries keep accepts, in order.
func (t *Table[T]) Filter(keep func(name string, value T) bool) *Table[T] {
	filtered := NewTable[T]()
	t.Each(func(name string, value T) {
		if keep(name, value) {
			filtered.Set(name, value)
		}
	})
	return filtered
}
