package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-datamapper/errs"
)

// Accessor is the dynamic field surface that Dispatch routes to.
type Accessor interface {
	TypeName() string
	Get(name string) (any, error)
	Set(ctx context.Context, name string, value any) error
}

// Dispatch resolves a "GetX" or "SetX" call to Get("X") or Set("X", arg).
// The verb prefix is matched case-insensitively, so "getX" works too. Get
// takes no arguments and returns the value; Set takes exactly one and
// returns the value that was set.
func Dispatch(ctx context.Context, target Accessor, method string, args ...any) (any, error) {
	if len(method) < 3 {
		return nil, errs.InvalidCall(target.TypeName(), method, "not a Get or Set method")
	}

	var verb string
	switch prefix := method[:3]; {
	case strings.EqualFold(prefix, "get"):
		verb = "Get"
	case strings.EqualFold(prefix, "set"):
		verb = "Set"
	default:
		return nil, errs.InvalidCall(target.TypeName(), method, "not a Get or Set method")
	}

	name := method[3:]
	if name == "" {
		return nil, errs.InvalidCall(target.TypeName(), method, verb+" method call is missing the variable name")
	}

	if verb == "Get" {
		if len(args) != 0 {
			return nil, errs.InvalidCall(target.TypeName(), method, fmt.Sprintf("expected no arguments, got %d", len(args)))
		}
		return target.Get(name)
	}

	if len(args) != 1 {
		return nil, errs.InvalidCall(target.TypeName(), method, fmt.Sprintf("expected 1 argument, got %d", len(args)))
	}
	if err := target.Set(ctx, name, args[0]); err != nil {
		return nil, err
	}
	return target.Get(name)
}
