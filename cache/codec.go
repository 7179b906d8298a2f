package cache

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Encode serialises v with msgpack. Map keys are sorted so equal values
// always produce equal bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("cache: encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserialises data into v. Integers and floats held in interface
// values decode as int64 and float64. When v is a *map[string]any, binary
// values at the top level decode as []byte; deeper ones decode as string.
func Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var err error
	if m, ok := v.(*map[string]any); ok {
		err = decodeSnapshot(dec, m)
	} else {
		err = dec.Decode(v)
	}
	if err != nil {
		return fmt.Errorf("cache: decode payload: %w", err)
	}
	return nil
}

// decodeSnapshot reads a flat field map, keeping bin values as []byte.
// Loose interface decoding alone would turn them into strings.
func decodeSnapshot(dec *msgpack.Decoder, dst *map[string]any) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n == -1 {
		*dst = nil
		return nil
	}

	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		code, err := dec.PeekCode()
		if err != nil {
			return err
		}
		if msgpcode.IsBin(code) {
			b, err := dec.DecodeBytes()
			if err != nil {
				return err
			}
			m[key] = b
			continue
		}
		value, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return err
		}
		m[key] = value
	}
	*dst = m
	return nil
}
