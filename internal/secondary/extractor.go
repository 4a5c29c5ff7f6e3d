// Package secondary implements the record-level machinery behind the
// secondary attribute index: extracting a secondary value from a JSON
// record, the secondary memtable's inverted list, and the composite key
// format shared by the secondary filter and interval block.
package secondary

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
)

// Extract pulls the value of the named attribute out of a JSON record and
// renders it as a string in exactly the format used to build composite
// secondary keys. Numbers keep their original textual form (an integer
// stays an integer, a float keeps its decimal point) by decoding with
// json.Number rather than float64, mirroring the IsUint64/IsInt64/IsDouble
// branching of the original extractor.
func Extract(record []byte, key string) (string, error) {
	if key == "" {
		return "", errors.Mark(errors.New("secondary: key not set"), base.ErrInvalidArgument)
	}

	dec := json.NewDecoder(bytes.NewReader(record))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", errors.Mark(
			errors.Wrapf(err, "secondary: decoding record"), base.ErrInvalidArgument)
	}

	v, ok := doc[key]
	if !ok || v == nil {
		return "", errors.Mark(
			errors.Newf("secondary: attribute %q not found in record", key),
			base.ErrInvalidArgument)
	}

	switch t := v.(type) {
	case json.Number:
		return t.String(), nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", errors.Mark(
			errors.Newf("secondary: unsupported attribute type for %q", key),
			base.ErrInvalidArgument)
	}
}
