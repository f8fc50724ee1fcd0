// Package schema describes the flattened interface as a language-neutral
// document for bindings that are maintained outside of this generator.
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Version is written into every document this generator produces.
const Version = "1.0.0"

type Document struct {
	Version string     `json:"version" yaml:"version"`
	Methods []Method   `json:"methods" yaml:"methods"`
	Structs StructList `json:"structs" yaml:"structs"`
}

type Method struct {
	Name       string     `json:"name" yaml:"name"`
	ReturnType string     `json:"return_type" yaml:"return_type"`
	Const      bool       `json:"const" yaml:"const"`
	Arguments  []Argument `json:"arguments" yaml:"arguments"`
}

type Argument struct {
	Type  string `json:"type" yaml:"type"`
	Name  string `json:"name" yaml:"name"`
	Const bool   `json:"const" yaml:"const"`
}

type Struct struct {
	Name   string
	Fields []Field
}

type Field struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// StructList is encoded as an object keyed by struct name. The order of
// the keys is the order of the list.
type StructList []Struct

func (l StructList) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, s := range l {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		fields := s.Fields
		if fields == nil {
			fields = []Field{}
		}
		value, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func (l *StructList) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.Newf("structs: expected an object, got %v", token)
	}

	var list StructList
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		name, _ := token.(string)
		var fields []Field
		if err := decoder.Decode(&fields); err != nil {
			return errors.Wrapf(err, "structs.%s", name)
		}
		list = append(list, Struct{Name: name, Fields: fields})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}
	*l = list
	return nil
}

func (l StructList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range l {
		var value yaml.Node
		fields := s.Fields
		if fields == nil {
			fields = []Field{}
		}
		if err := value.Encode(fields); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name},
			&value)
	}
	return node, nil
}

func (l *StructList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf("structs: expected a mapping at line %d", node.Line)
	}
	var list StructList
	for i := 0; i+1 < len(node.Content); i += 2 {
		var fields []Field
		if err := node.Content[i+1].Decode(&fields); err != nil {
			return errors.Wrapf(err, "structs.%s", node.Content[i].Value)
		}
		list = append(list, Struct{Name: node.Content[i].Value, Fields: fields})
	}
	*l = list
	return nil
}

// MethodNames lists the methods in document order.
func (d *Document) MethodNames() []string {
	names := make([]string, len(d.Methods))
	for i, m := range d.Methods {
		names[i] = m.Name
	}
	return names
}
