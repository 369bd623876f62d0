package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
)

// ParseJSON parses a document of the form
//
//	{"id": {"type": "INTEGER", "mode": "REQUIRED"}, "name": {"type": "STRING"}}
//
// keeping the column order of the document.
func ParseJSON(data []byte) (Description, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("empty schema document")
	}
	// jsonparser stops at the first complete value and skips separators, so
	// the document is checked as a whole first.
	if !json.Valid(data) {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs("schema document is not valid JSON")
	}
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs(err.Error())
	}
	if dataType != jsonparser.Object {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("top level value is %v, expected object", dataType))
	}

	b := newBuilder()
	var colErr error
	err = jsonparser.ObjectEach(data, func(key []byte, value []byte, valueType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			colErr = errno.ErrSchemaParse.GenWithStackByArgs(err.Error())
			return colErr
		}
		if valueType != jsonparser.Object {
			colErr = errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q is %v, expected object", name, valueType))
			return colErr
		}
		tp, hasType, err := stringField(value, "type")
		if err != nil {
			colErr = errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q: %v", name, err))
			return colErr
		}
		mode, _, err := stringField(value, "mode")
		if err != nil {
			colErr = errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q: %v", name, err))
			return colErr
		}
		description, _, err := stringField(value, "description")
		if err != nil {
			colErr = errno.ErrSchemaParse.GenWithStackByArgs(fmt.Sprintf("column %q: %v", name, err))
			return colErr
		}
		colErr = b.add(name, tp, mode, description, hasType)
		return colErr
	})
	if colErr != nil {
		return nil, colErr
	}
	if err != nil {
		return nil, errno.ErrSchemaParse.GenWithStackByArgs(err.Error())
	}
	return b.result()
}

// stringField reads an optional string key of a JSON object. A null value is
// treated as absent.
func stringField(obj []byte, key string) (string, bool, error) {
	value, dataType, _, err := jsonparser.Get(obj, key)
	if dataType == jsonparser.NotExist || dataType == jsonparser.Null {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if dataType != jsonparser.String {
		return "", false, errors.Errorf("%q must be a string, got %v", key, dataType)
	}
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
