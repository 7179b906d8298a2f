package schema

import (
	"strings"

	"github.com/goliatone/go-datamapper/errs"
)

// BindType is the coarse type controlling how a field's value is bound to a
// statement parameter.
type BindType string

const (
	BindInt    BindType = "int"
	BindString BindType = "string"
	BindFloat  BindType = "float"
	BindBlob   BindType = "blob"
)

// Char returns the statement bind character for b.
func (b BindType) Char() byte {
	switch b {
	case BindInt:
		return 'i'
	case BindFloat:
		return 'd'
	case BindBlob:
		return 'b'
	default:
		return 's'
	}
}

var nativeFamilies = map[string]BindType{
	// integer-like
	"integer":     BindInt,
	"int":         BindInt,
	"int2":        BindInt,
	"int4":        BindInt,
	"int8":        BindInt,
	"smallint":    BindInt,
	"tinyint":     BindInt,
	"mediumint":   BindInt,
	"bigint":      BindInt,
	"serial":      BindInt,
	"smallserial": BindInt,
	"bigserial":   BindInt,
	"timestamp":   BindInt,

	// decimal/float-like
	"decimal": BindFloat,
	"numeric": BindFloat,
	"float":   BindFloat,
	"float4":  BindFloat,
	"float8":  BindFloat,
	"double":  BindFloat,
	"real":    BindFloat,

	// char/text/date-like
	"char":       BindString,
	"character":  BindString,
	"bpchar":     BindString,
	"varchar":    BindString,
	"text":       BindString,
	"tinytext":   BindString,
	"mediumtext": BindString,
	"longtext":   BindString,
	"date":       BindString,
	"time":       BindString,
	"datetime":   BindString,

	// binary-like
	"blob":       BindBlob,
	"tinyblob":   BindBlob,
	"mediumblob": BindBlob,
	"longblob":   BindBlob,
	"binary":     BindBlob,
	"varbinary":  BindBlob,
	"bytea":      BindBlob,
}

// MapNativeType maps a store-native column type to its bind type. Length and
// precision qualifiers and trailing modifiers are ignored, as is case, so
// "INT(11) unsigned" and "int" both map to BindInt.
func MapNativeType(native string) (BindType, error) {
	base := strings.ToLower(strings.TrimSpace(native))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	if fields := strings.Fields(base); len(fields) > 0 {
		base = fields[0]
	}

	if bind, ok := nativeFamilies[base]; ok {
		return bind, nil
	}
	return "", errs.TypeMapping("", "", native)
}
