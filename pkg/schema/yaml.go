package schema

import (
	"fmt"

	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
	"gopkg.in/yaml.v3"
)

// ParseYAML parses the YAML form of a schema document:
//
//	id:
//	  type: INTEGER
//	  mode: REQUIRED
//	name:
//	  type: STRING
func ParseYAML(data []byte) (Description, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs(err.Error())
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("empty schema document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("top level value is not a mapping")
	}

	b := newBuilder()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("line %d: column name is not a scalar", key.Line))
		}
		if value.Kind != yaml.MappingNode {
			return nil, errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q is not a mapping", key.Value))
		}
		fields, err := yamlStringFields(value)
		if err != nil {
			return nil, errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q: %v", key.Value, err))
		}
		tp, hasType := fields["type"]
		if err := b.add(key.Value, tp, fields["mode"], fields["description"], hasType); err != nil {
			return nil, err
		}
	}
	return b.result()
}

// yamlStringFields reads the keys of a column mapping with the same rules as
// the JSON form: values must be strings, null is treated as absent. A plain
// scalar such as 5 or true is not a string.
func yamlStringFields(node *yaml.Node) (map[string]string, error) {
	fields := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
			continue
		}
		if value.Kind != yaml.ScalarNode || value.Tag != "!!str" {
			return nil, errors.Errorf("%q must be a string, got %s", key.Value, value.Tag)
		}
		fields[key.Value] = value.Value
	}
	return fields, nil
}
