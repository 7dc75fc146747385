package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("document is empty")

// DecodeDocument reads a JSON or YAML document into T. YAML goes through
// JSON so the json struct tags on T apply to both formats.
func DecodeDocument[T any](data []byte) (T, error) {
	var out T

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return out, ErrEmptyDocument
	}

	if !isJSON(data) {
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return out, fmt.Errorf("invalid yaml: %w", err)
		}
		converted, err := json.Marshal(tree)
		if err != nil {
			return out, fmt.Errorf("yaml is not representable as json: %w", err)
		}
		logrus.WithField("bytes", len(data)).Debugln("Decoded YAML document")
		data = converted
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("invalid document: %w", err)
	}
	return out, nil
}

func isJSON(data []byte) bool {
	return data[0] == '{' || data[0] == '['
}
