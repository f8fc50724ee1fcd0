package metadata

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"fntablegen/internal/config"
	"fntablegen/internal/logging"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrMalformedDeclaration marks a candidate line that could not be decomposed
// into a return type, a name and a parameter list.
var ErrMalformedDeclaration = errors.New("malformed declaration")

// DeclarationError identifies the offending source line.
type DeclarationError struct {
	Line   int
	Text   string
	Reason string
}

func (e *DeclarationError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %q", e.Reason, e.Text)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

var (
	identifier     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	typeSpelling   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:::[A-Za-z_][A-Za-z0-9_]*)*(?:<[A-Za-z0-9_:<>,*]*>)?$`)
	pureSpecifier  = regexp.MustCompile(`\s*=\s*0$`)
	typeQualifiers = []string{"struct", "class", "enum", "typename"}
	typeModifiers  = []string{"unsigned", "signed", "short", "long"}
)

// HeaderReader extracts virtual method declarations from a header.
type HeaderReader struct {
	config *config.Config
	logger *zap.SugaredLogger
}

// Generates a new reader using the qualification and creation tables of cfg
func NewReader(cfg *config.Config, logger *zap.SugaredLogger) *HeaderReader {
	return &HeaderReader{
		config: cfg,
		logger: logging.OrNop(logger),
	}
}

// Read returns every pure virtual declaration found in lines, in source
// order. Lines that are not candidates are ignored. A name declared twice
// takes the content of the later declaration; its position follows the
// configured duplicate policy.
func (reader *HeaderReader) Read(lines []string) (*MethodTable, error) {
	methods := NewTable[*Signature]()
	for i, line := range lines {
		text, candidate := candidateText(line)
		if !candidate {
			continue
		}

		signature, err := reader.parse(text)
		if err != nil {
			var declErr *DeclarationError
			if errors.As(err, &declErr) {
				declErr.Line = i + 1
			}
			return nil, err
		}
		signature.Line = i + 1
		reader.logger.Debugw("declaration", "method", signature.Name, "line", signature.Line)

		if previous, found := methods.Get(signature.Name); found {
			reader.logger.Warnw("method declared more than once",
				"method", signature.Name,
				"first_line", previous.Line,
				"line", signature.Line,
				"policy", reader.config.DuplicatePolicy)
			if reader.config.DuplicatePolicy == config.DuplicateMoveToLast {
				methods.Append(signature.Name, signature)
				continue
			}
		}
		methods.Set(signature.Name, signature)
	}

	reader.logger.Debugw("read interface", "methods", methods.Len(), "lines", len(lines))
	return methods, nil
}

// ParseDeclaration parses a single candidate line.
func (reader *HeaderReader) ParseDeclaration(line string) (*Signature, error) {
	text, candidate := candidateText(line)
	if !candidate {
		return nil, declarationError(line, "not a virtual declaration")
	}
	return reader.parse(text)
}

// candidateText trims surrounding whitespace and reports whether the line is
// a pure declaration. A line ending in a comment does not end with the
// terminator and is not one.
func candidateText(line string) (string, bool) {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, "virtual ") && !strings.HasPrefix(text, "virtual\t") {
		return text, false
	}
	if !strings.HasSuffix(text, ";") || strings.Contains(text, "{") {
		return text, false
	}
	return text, true
}

func declarationError(text, reason string, args ...interface{}) error {
	return errors.Mark(&DeclarationError{Text: text, Reason: fmt.Sprintf(reason, args...)}, ErrMalformedDeclaration)
}

func (reader *HeaderReader) parse(text string) (*Signature, error) {
	body := strings.TrimSpace(strings.TrimPrefix(text, "virtual"))
	body = strings.TrimSpace(strings.TrimSuffix(body, ";"))
	body = pureSpecifier.ReplaceAllString(body, "")
	body = strings.TrimSpace(strings.TrimSuffix(body, "override"))

	signature := &Signature{}
	if strings.HasSuffix(body, "const") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(body, "const"))
		if strings.HasSuffix(trimmed, ")") {
			signature.IsConst = true
			body = trimmed
		}
	}

	open := strings.Index(body, "(")
	if open < 0 {
		return nil, declarationError(text, "missing parameter list")
	}
	if !strings.HasSuffix(body, ")") {
		return nil, declarationError(text, "unexpected text after parameter list")
	}

	head := strings.TrimSpace(body[:open])
	split := strings.LastIndexAny(head, " \t")
	if split < 0 {
		return nil, declarationError(text, "missing return type")
	}
	returnType := strings.TrimSpace(head[:split])
	name := strings.TrimSpace(head[split+1:])

	if strings.HasPrefix(name, "*") {
		name = name[1:]
		signature.IsPointerReturn = true
	}
	if strings.HasSuffix(returnType, "*") {
		if signature.IsPointerReturn {
			return nil, declarationError(text, "multiple indirection on return type")
		}
		returnType = strings.TrimSpace(strings.TrimSuffix(returnType, "*"))
		signature.IsPointerReturn = true
	}
	if strings.ContainsAny(returnType, "*&") || strings.HasPrefix(name, "&") {
		return nil, declarationError(text, "unsupported return indirection")
	}
	if !identifier.MatchString(name) {
		return nil, declarationError(text, "%q is not a method name", name)
	}
	if returnType == "" {
		return nil, declarationError(text, "missing return type")
	}
	if !validType(strings.Fields(returnType)) {
		return nil, declarationError(text, "malformed return type %q", returnType)
	}

	signature.Name = name
	signature.ReturnType = TypeRef{
		Name:    reader.config.Qualified(normalizeSpace(returnType)),
		Pointer: signature.IsPointerReturn,
	}

	rawParameters, balanced := splitTopLevel(body[open+1 : len(body)-1])
	if !balanced {
		return nil, declarationError(text, "unbalanced brackets in parameter list")
	}
	for _, raw := range rawParameters {
		parameter, err := reader.parseParameter(text, raw)
		if err != nil {
			return nil, err
		}
		signature.Parameters = append(signature.Parameters, parameter)
	}

	signature.Resolution = reader.resolution(signature)
	return signature, nil
}

func (reader *HeaderReader) parseParameter(text, raw string) (Parameter, error) {
	if idx := strings.Index(raw, "="); idx >= 0 {
		value := strings.TrimSpace(raw[idx+1:])
		if !slices.Contains(reader.config.DefaultArgs, value) {
			return Parameter{}, declarationError(text, "unrecognized default argument %q", value)
		}
		raw = raw[:idx]
	}

	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return Parameter{}, declarationError(text, "parameter %q needs a type and a name", strings.TrimSpace(raw))
	}

	name := fields[len(fields)-1]
	rest := fields[:len(fields)-1]

	sigils := ""
	for strings.HasPrefix(name, "*") || strings.HasPrefix(name, "&") {
		sigils += name[:1]
		name = name[1:]
	}
	for len(rest) > 0 && strings.Trim(rest[len(rest)-1], "*&") == "" {
		sigils = rest[len(rest)-1] + sigils
		rest = rest[:len(rest)-1]
	}

	parameter := Parameter{Name: name}
	if len(rest) > 0 && rest[len(rest)-1] == "const" {
		parameter.IsConst = true
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		return Parameter{}, declarationError(text, "parameter %q has no type", strings.TrimSpace(raw))
	}

	typeName := rest[len(rest)-1]
	for strings.HasSuffix(typeName, "*") || strings.HasSuffix(typeName, "&") {
		sigils = typeName[len(typeName)-1:] + sigils
		typeName = typeName[:len(typeName)-1]
	}

	var prefix []string
	for _, token := range rest[:len(rest)-1] {
		switch {
		case token == "const":
			parameter.IsConst = true
		case slices.Contains(typeQualifiers, token):
		default:
			prefix = append(prefix, token)
		}
	}
	typeName = strings.Join(append(prefix, typeName), " ")

	switch sigils {
	case "":
		parameter.Indirection = ByValue
	case "&":
		parameter.Indirection = ByReference
	case "*":
		parameter.Indirection = ByPointer
	default:
		return Parameter{}, declarationError(text, "parameter %q has more than one indirection", name)
	}
	if !identifier.MatchString(name) {
		return Parameter{}, declarationError(text, "%q is not a parameter name", name)
	}
	if typeName == "" {
		return Parameter{}, declarationError(text, "parameter %q has no type", name)
	}
	if !validType(strings.Fields(typeName)) {
		return Parameter{}, declarationError(text, "parameter %q has malformed type %q", name, typeName)
	}

	parameter.Type = TypeRef{
		Name:    reader.config.Qualified(typeName),
		Pointer: parameter.IsIndirect(),
	}
	return parameter, nil
}

// resolution classifies a handle-returning method by its name.
func (reader *HeaderReader) resolution(signature *Signature) ResolutionKind {
	if signature.ReturnType.Name != reader.config.HandleType || signature.IsPointerReturn {
		return ResolveNone
	}
	return ClassifyResolution(signature.Name, reader.config.Creation)
}

// ClassifyResolution applies the creation naming convention: a method whose
// name carries one of the creation suffixes or prefixes registers a new
// handle, any other handle-returning method looks one up.
func ClassifyResolution(name string, creation config.CreationConfig) ResolutionKind {
	for _, suffix := range creation.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return ResolveCreate
		}
	}
	for _, prefix := range creation.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return ResolveCreate
		}
	}
	return ResolveLookup
}

// splitTopLevel splits a parameter list on commas outside of brackets and
// reports whether the brackets balance. An empty or "void" list yields no
// parameters.
func splitTopLevel(list string) ([]string, bool) {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return nil, true
	}

	var parts []string
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, list[start:]), depth == 0
}

// validType reports whether tokens spell a single type: a name, possibly
// scoped or templated, after any integer modifiers.
func validType(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens[:len(tokens)-1] {
		if !slices.Contains(typeModifiers, token) {
			return false
		}
	}
	last := tokens[len(tokens)-1]
	if !typeSpelling.MatchString(last) {
		return false
	}
	_, balanced := splitTopLevel(last)
	return balanced
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
