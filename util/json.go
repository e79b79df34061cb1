// util/json.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

func UnmarshalJSON[T any](r io.Reader, out *T) error {
	// We need the contents as an array of bytes so that we can issue
	// reasonable errors.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return UnmarshalJSONBytes(b, out)
}

// UnmarshalJSONBytes unmarshals the bytes into the given type but
// reports the line and character of syntax and type errors.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

// CheckJSONKeys reports object keys in contents that do not correspond to
// a json-tagged field of T, so that misspelled options are not silently
// ignored.
func CheckJSONKeys[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSONBytes(contents, &items); err != nil {
		e.Error(err)
		return
	}

	checkKeys(items, reflect.TypeOf((*T)(nil)).Elem(), e)
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

func checkKeys(v any, ty reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Ptr {
		ty = ty.Elem()
	}
	if reflect.PointerTo(ty).Implements(unmarshalerType) {
		// Types with their own JSON syntax validate themselves.
		return
	}

	switch ty.Kind() {
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			e.ErrorString("expected an object, got %s", describeJSON(v))
			return
		}

		fields := make(map[string]reflect.Type)
		for _, field := range reflect.VisibleFields(ty) {
			if jtag, ok := field.Tag.Lookup("json"); ok {
				name, _, _ := strings.Cut(jtag, ",")
				if name != "-" {
					fields[name] = field.Type
				}
			}
		}

		for key, value := range obj {
			fty, ok := fields[key]
			if !ok {
				e.ErrorString("The entry %q is not an expected option. Is it misspelled?", key)
				continue
			}
			e.Push(key)
			checkKeys(value, fty, e)
			e.Pop()
		}

	case reflect.Map:
		if obj, ok := v.(map[string]any); ok {
			for key, value := range obj {
				e.Push(key)
				checkKeys(value, ty.Elem(), e)
				e.Pop()
			}
		}

	case reflect.Slice, reflect.Array:
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				checkKeys(item, ty.Elem(), e)
			}
		}
	}
}

func describeJSON(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return reflect.TypeOf(v).String()
	}
}
