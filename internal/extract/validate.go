package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformed is returned when no well-formed JSON value can be extracted.
	ErrMalformed = errors.New("malformed model output")

	// ErrShape is returned when the extracted value has the wrong type or is
	// missing required content.
	ErrShape = errors.New("unexpected output shape")
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Object accepts a JSON object containing requiredKey and decodes it into T.
// An empty requiredKey only checks that the value is an object. When T is a
// struct its validate tags are checked too.
func Object[T any](requiredKey string) func(raw string) (any, error) {
	return func(raw string) (any, error) {
		value, err := extractKind(raw, '{')
		if err != nil {
			return nil, err
		}

		if requiredKey != "" {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(value, &fields); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			if _, ok := fields[requiredKey]; !ok {
				return nil, fmt.Errorf("%w: missing required key %q", ErrShape, requiredKey)
			}
		}

		var out T
		if err := json.Unmarshal(value, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		if err := checkTags(out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		return out, nil
	}
}

// Array accepts a JSON array and decodes it into []T. A bare empty object is
// read as an empty array, a common model reply when nothing was found. Struct
// items must satisfy their validate tags.
func Array[T any]() func(raw string) (any, error) {
	return func(raw string) (any, error) {
		ex := JSON(raw)
		if !ex.Valid {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, ex.Reason)
		}

		value := bytes.TrimSpace(ex.Value)
		if string(compact(value)) == "{}" {
			return []T{}, nil
		}
		if value[0] != '[' {
			return nil, fmt.Errorf("%w: expected a JSON array", ErrShape)
		}

		out := []T{}
		if err := json.Unmarshal(value, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		for i := range out {
			if err := checkTags(out[i]); err != nil {
				return nil, fmt.Errorf("%w: item %d: %v", ErrShape, i, err)
			}
		}
		return out, nil
	}
}

// checkTags runs struct validation on v; other kinds pass unchecked.
func checkTags(v any) error {
	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}
	return structValidator().Struct(v)
}

func extractKind(raw string, open byte) (json.RawMessage, error) {
	ex := JSON(raw)
	if !ex.Valid {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, ex.Reason)
	}
	value := bytes.TrimSpace(ex.Value)
	if value[0] != open {
		kind := "object"
		if open == '[' {
			kind = "array"
		}
		return nil, fmt.Errorf("%w: expected a JSON %s", ErrShape, kind)
	}
	return value, nil
}

func compact(value []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return value
	}
	return buf.Bytes()
}
