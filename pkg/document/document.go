package document

import (
	"fmt"

	"github.com/emosbaugh/yaml"
	"github.com/pkg/errors"
)

// Kind discriminates the three node shapes a Document is built from.
type Kind int

const (
	KindScalar Kind = iota
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// KindOf reports the node shape of a parsed YAML value. Anything that is
// neither an ordered mapping nor a sequence is a scalar, including nil.
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case yaml.MapSlice:
		return KindMapping
	case []interface{}:
		return KindSequence
	default:
		return KindScalar
	}
}

// Document is one configuration fragment: an ordered-mapping tree of
// mappings, sequences and scalars. A Document returned by Merge shares no
// mutable state with its inputs.
type Document struct {
	root interface{}
}

// FromMapSlice wraps an ordered mapping as a Document.
func FromMapSlice(m yaml.MapSlice) Document {
	return Document{root: m}
}

// Parse reads a YAML fragment into a Document. Mappings keep their key
// order. Duplicate keys within one mapping are rejected.
func Parse(data []byte) (Document, error) {
	var root yaml.MapSlice
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, errors.Wrap(err, "unmarshal document")
	}
	if err := checkDuplicateKeys(root, ""); err != nil {
		return Document{}, err
	}
	return Document{root: root}, nil
}

// Marshal serializes the Document back into YAML notation. Multi-line
// string scalars render in literal block style.
func (d Document) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(d.root)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	return out, nil
}

// MapSlice returns the root mapping, or false if the root is not a mapping.
func (d Document) MapSlice() (yaml.MapSlice, bool) {
	m, ok := d.root.(yaml.MapSlice)
	return m, ok
}

// IsZero reports whether the Document holds no content at all.
func (d Document) IsZero() bool {
	if d.root == nil {
		return true
	}
	if m, ok := d.root.(yaml.MapSlice); ok {
		return len(m) == 0
	}
	return false
}

// GetValue looks a key up in an ordered mapping.
func GetValue(m yaml.MapSlice, key string) (interface{}, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// SetValue replaces the value at key, or appends the key if absent,
// returning the updated mapping.
func SetValue(m yaml.MapSlice, key string, value interface{}) yaml.MapSlice {
	for i, item := range m {
		if item.Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, yaml.MapItem{Key: key, Value: value})
}

func checkDuplicateKeys(v interface{}, at string) error {
	switch node := v.(type) {
	case yaml.MapSlice:
		seen := map[interface{}]bool{}
		for _, item := range node {
			if seen[item.Key] {
				return errors.Errorf("duplicate mapping key %v at %s", item.Key, pathOrRoot(at))
			}
			seen[item.Key] = true
			if err := checkDuplicateKeys(item.Value, fmt.Sprintf("%s.%v", at, item.Key)); err != nil {
				return err
			}
		}
	case []interface{}:
		for i, elem := range node {
			if err := checkDuplicateKeys(elem, fmt.Sprintf("%s[%d]", at, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func pathOrRoot(at string) string {
	if at == "" {
		return "document root"
	}
	return at
}
