package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "_"

// Scope decides whether a cached value is shared or private to a session.
type Scope int

const (
	// ScopePrivate keys include a hash of the session identifier.
	ScopePrivate Scope = iota
	// ScopePublic keys are shared by every session.
	ScopePublic
)

func (s Scope) String() string {
	if s == ScopePublic {
		return "public"
	}
	return "private"
}

// KeyBuilder composes backend keys from an entity type, an identifier within
// that type and a scope.
type KeyBuilder interface {
	// BuildKey returns false when a private key is requested and ctx carries
	// no session; such values must not be cached.
	BuildKey(ctx context.Context, entityType, id string, scope Scope) (string, bool)
}

type defaultKeyBuilder struct {
	namespace string
}

// NewKeyBuilder returns the default builder. A non-empty namespace prefixes
// every key so deployments sharing a backend do not collide.
func NewKeyBuilder(namespace string) KeyBuilder {
	return &defaultKeyBuilder{namespace: strings.TrimSpace(namespace)}
}

// BuildKey produces "{ns}_{type}_{id}_public" or "{ns}_{type}_{h(id)}_{h(sid)}".
func (b *defaultKeyBuilder) BuildKey(ctx context.Context, entityType, id string, scope Scope) (string, bool) {
	if id == "" {
		return "", false
	}

	var parts []string
	if b.namespace != "" {
		parts = append(parts, b.namespace)
	}
	parts = append(parts, entityType)

	switch scope {
	case ScopePublic:
		parts = append(parts, id, "public")
	default:
		sid, ok := SessionFromContext(ctx)
		if !ok {
			return "", false
		}
		parts = append(parts, hashSegment(id), hashSegment(sid))
	}

	return strings.Join(parts, KeySeparator), true
}

func hashSegment(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// FormatKeyValue renders a lookup value the same way whatever Go type the
// caller used for it, so 1, int64(1) and "1" address the same entry.
func FormatKeyValue(v any) string {
	if v == nil {
		return ""
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		return FormatKeyValue(rv.Elem().Interface())
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return hex.EncodeToString(rv.Bytes())
		}
	}

	return fmt.Sprintf("%v", v)
}
