package record

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-datamapper/schema"
)

// DateTimeLayout renders time values held in string fields.
const DateTimeLayout = "2006-01-02 15:04:05"

// defaultValue is the fresh value of a field of the given bind type.
func defaultValue(bind schema.BindType) any {
	switch bind {
	case schema.BindInt:
		return int64(0)
	case schema.BindFloat:
		return 0.0
	case schema.BindString:
		return ""
	default:
		return nil
	}
}

// normalize coerces v to the canonical Go type of bind: int64, float64,
// string or []byte. nil stays nil.
func normalize(bind schema.BindType, v any) (any, bool) {
	if v == nil {
		return nil, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, true
		}
		return normalize(bind, rv.Elem().Interface())
	}

	switch bind {
	case schema.BindInt:
		return normalizeInt(rv)
	case schema.BindFloat:
		return normalizeFloat(rv)
	case schema.BindString:
		return normalizeString(rv)
	case schema.BindBlob:
		switch b := v.(type) {
		case []byte:
			if b == nil {
				return nil, true
			}
			return append(make([]byte, 0, len(b)), b...), true
		case string:
			return []byte(b), true
		}
	}
	return nil, false
}

func normalizeInt(rv reflect.Value) (any, bool) {
	if t, ok := rv.Interface().(time.Time); ok {
		return t.Unix(), true
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return nil, false
		}
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || !fitsInt64(f) {
			return nil, false
		}
		return int64(f), true
	case reflect.Bool:
		if rv.Bool() {
			return int64(1), true
		}
		return int64(0), true
	case reflect.String:
		return parseInt(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return parseInt(string(rv.Bytes()))
		}
	}
	return nil, false
}

func parseInt(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && fitsInt64(f) {
		return int64(f), true
	}
	return nil, false
}

// fitsInt64 reports whether an integral f converts to int64 exactly.
// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func normalizeFloat(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32:
		// through the decimal form so 9.99 stays 9.99
		f, err := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)
		return f, err == nil
	case reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return f, err == nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			f, err := strconv.ParseFloat(strings.TrimSpace(string(rv.Bytes())), 64)
			return f, err == nil
		}
	}
	return nil, false
}

func normalizeString(rv reflect.Value) (any, bool) {
	switch x := rv.Interface().(type) {
	case time.Time:
		return x.Format(DateTimeLayout), true
	case fmt.Stringer:
		return x.String(), true
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), true
		}
	}
	return nil, false
}

// sameValue compares two normalized values. Blobs never hold a typed nil,
// so a nil blob only equals nil.
func sameValue(a, b any) bool {
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	switch {
	case aok && bok:
		return bytes.Equal(ab, bb)
	case aok || bok:
		return false
	}
	return a == b
}
