package schema

import (
	"bytes"
	"encoding/json"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// SupportedVersions is the range of document versions Decode accepts.
const SupportedVersions = ">= 1.0, < 2.0"

var ErrUnsupportedVersion = errors.New("unsupported schema version")

// Build describes the flat table and the auxiliary structs.
func Build(methods *mapping.FlatTable, structs []config.StructConfig) *Document {
	document := &Document{
		Version: Version,
		Methods: make([]Method, 0, methods.Len()),
		Structs: make(StructList, 0, len(structs)),
	}
	methods.Each(func(name string, signature *mapping.FlatSignature) {
		method := Method{
			Name:       name,
			ReturnType: signature.ReturnType,
			Const:      signature.Const,
			Arguments:  make([]Argument, len(signature.Arguments)),
		}
		for i, arg := range signature.Arguments {
			method.Arguments[i] = Argument{Type: arg.Type, Name: arg.Name, Const: arg.Const}
		}
		document.Methods = append(document.Methods, method)
	})
	for _, s := range structs {
		fields := make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = Field{Type: f.Type, Name: f.Name}
		}
		document.Structs = append(document.Structs, Struct{Name: s.Name, Fields: fields})
	}
	return document
}

// Encode serializes the document. The output only depends on the document.
func Encode(document *Document, format string) ([]byte, error) {
	switch format {
	case config.SchemaFormatJSON:
		data, err := json.MarshalIndent(document, "", "\t")
		if err != nil {
			return nil, errors.Wrap(err, "encoding schema")
		}
		return append(data, '\n'), nil
	case config.SchemaFormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(2)
		if err := encoder.Encode(document); err != nil {
			return nil, errors.Wrap(err, "encoding schema")
		}
		if err := encoder.Close(); err != nil {
			return nil, errors.Wrap(err, "encoding schema")
		}
		return buffer.Bytes(), nil
	}
	return nil, errors.Newf("unknown schema format %q", format)
}

// Decode reads a document produced by Encode and checks its version.
func Decode(data []byte, format string) (*Document, error) {
	var document Document
	switch format {
	case config.SchemaFormatJSON:
		if err := json.Unmarshal(data, &document); err != nil {
			return nil, errors.Wrap(err, "decoding schema")
		}
	case config.SchemaFormatYAML:
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, errors.Wrap(err, "decoding schema")
		}
	default:
		return nil, errors.Newf("unknown schema format %q", format)
	}

	if err := checkVersion(document.Version); err != nil {
		return nil, err
	}
	return &document, nil
}

func checkVersion(raw string) error {
	documentVersion, err := version.NewVersion(raw)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "schema version %q", raw), ErrUnsupportedVersion)
	}
	constraints, err := version.NewConstraint(SupportedVersions)
	if err != nil {
		return errors.Wrap(err, "parsing supported versions")
	}
	if !constraints.Check(documentVersion) {
		return errors.Mark(
			errors.Newf("schema version %s is outside %s", documentVersion.Original(), SupportedVersions),
			ErrUnsupportedVersion)
	}
	return nil
}
