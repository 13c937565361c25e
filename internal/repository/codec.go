package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Codec converts between a Go value and the value handed to or read from
// the driver. Drivers do not agree on what they return (MySQL hands out
// []byte for text and integers in some protocols, SQLite returns int64 for
// booleans), so Decode must accept every representation a backend may produce.
type Codec[V any] interface {
	Encode(v V) (any, error)
	Decode(src any) (V, error)
}

var (
	Int64 Codec[int64]  = int64Codec{}
	Text  Codec[string] = textCodec{}
	Bool  Codec[bool]   = boolCodec{}
)

type int64Codec struct{}

func (int64Codec) Encode(v int64) (any, error) { return v, nil }

func (int64Codec) Decode(src any) (int64, error) {
	switch v := src.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("cannot decode %d as int64: out of range", v)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot decode %T as int64", src)
	}
}

type textCodec struct{}

func (textCodec) Encode(v string) (any, error) { return v, nil }

func (textCodec) Decode(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot decode %T as text", src)
	}
}

type boolCodec struct{}

func (boolCodec) Encode(v bool) (any, error) { return v, nil }

func (boolCodec) Decode(src any) (bool, error) {
	switch v := src.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int:
		return v != 0, nil
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	default:
		return false, fmt.Errorf("cannot decode %T as bool", src)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	default:
		return false, fmt.Errorf("cannot decode %q as bool", s)
	}
}
