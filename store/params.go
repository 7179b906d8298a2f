package store

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Bind characters accepted in a Bind type string.
const (
	BindInt    = 'i'
	BindFloat  = 'd'
	BindString = 's'
	BindBlob   = 'b'
)

// Params holds bound statement arguments. Implementations embed it to get
// Bind and SendLongData with the shared coercion rules.
type Params struct {
	types string
	args  []any
}

// Bind replaces the bound arguments. Each argument is coerced to the Go type
// matching its bind character; nil binds NULL.
func (p *Params) Bind(types string, args ...any) error {
	if len(types) != len(args) {
		return fmt.Errorf("store: bind type string %q has %d entries for %d arguments", types, len(types), len(args))
	}

	bound := make([]any, len(args))
	for i, arg := range args {
		v, err := coerce(types[i], arg)
		if err != nil {
			return fmt.Errorf("store: bind parameter %d: %w", i, err)
		}
		bound[i] = v
	}

	p.types = types
	p.args = bound
	return nil
}

// SendLongData appends the contents of r to the blob parameter at index.
func (p *Params) SendLongData(index int, r io.Reader) error {
	if index < 0 || index >= len(p.args) {
		return fmt.Errorf("store: long data index %d out of range", index)
	}
	if p.types[index] != BindBlob {
		return fmt.Errorf("store: parameter %d is not bound as a blob", index)
	}

	var buf bytes.Buffer
	if existing, ok := p.args[index].([]byte); ok {
		buf.Write(existing)
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("store: read long data for parameter %d: %w", index, err)
	}
	data := buf.Bytes()
	if data == nil {
		data = []byte{}
	}
	p.args[index] = data
	return nil
}

// Args returns the bound arguments in order.
func (p *Params) Args() []any {
	return p.args
}

// Types returns the bind type string last passed to Bind.
func (p *Params) Types() string {
	return p.types
}

func coerce(bind byte, arg any) (any, error) {
	if arg == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(arg)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return coerce(bind, rv.Elem().Interface())
	}

	switch bind {
	case BindInt:
		return toInt64(rv)
	case BindFloat:
		return toFloat64(rv)
	case BindString:
		return toString(rv)
	case BindBlob:
		if b, ok := arg.([]byte); ok {
			return append([]byte(nil), b...), nil
		}
		if s, ok := arg.(string); ok {
			return []byte(s), nil
		}
		return nil, fmt.Errorf("cannot bind %T as blob", arg)
	default:
		return nil, fmt.Errorf("unknown bind type %q", bind)
	}
}

func toInt64(rv reflect.Value) (int64, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("float %v is not an integer", f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("float %v overflows int64", f)
		}
		return int64(f), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		return strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
	}
	return 0, fmt.Errorf("cannot bind %s as integer", rv.Type())
}

func toFloat64(rv reflect.Value) (float64, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
	}
	return 0, fmt.Errorf("cannot bind %s as float", rv.Type())
}

func toString(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), nil
		}
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	return "", fmt.Errorf("cannot bind %s as string", rv.Type())
}
