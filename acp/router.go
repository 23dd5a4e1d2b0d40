package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// routeEntry binds one method name to a typed handler over Impl (the
// Agent or Client interface a facade's user implements), replacing a
// hand-rolled method-name switch with a declarative table per spec
// §4.3.
type routeEntry[Impl any] struct {
	method       string
	notification bool
	// invoke unmarshals and validates params, then calls the bound
	// method on impl, returning its result (nil for notifications and
	// for methods with an empty result).
	invoke func(ctx context.Context, impl Impl, params json.RawMessage) (any, *RequestError)
}

// methodTable is a side's full set of routed methods, keyed by wire
// method name, plus hooks for "_"-prefixed extension methods (spec §7.4
// "Extension methods").
type methodTable[Impl any] struct {
	routes map[string]routeEntry[Impl]
}

func newMethodTable[Impl any](entries ...routeEntry[Impl]) *methodTable[Impl] {
	t := &methodTable[Impl]{routes: make(map[string]routeEntry[Impl], len(entries))}
	for _, e := range entries {
		t.routes[e.method] = e
	}
	return t
}

// decodeParams unmarshals params into *T and runs struct-tag
// validation, translating every validation failure into the ACP
// invalid_params error shape (spec §6, §7.2).
func decodeParams[T any](params json.RawMessage) (T, *RequestError) {
	var v T
	if len(params) == 0 {
		params = []byte("{}")
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, NewRequestError(CodeInvalidParams, "invalid params", map[string]string{"error": err.Error()})
	}
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{
					Field: fe.Namespace(),
					Rule:  fe.Tag(),
					Value: fmt.Sprintf("%v", fe.Value()),
				})
			}
			return v, ErrInvalidParams(fields)
		}
		return v, NewRequestError(CodeInvalidParams, "invalid params", map[string]string{"error": err.Error()})
	}
	return v, nil
}

// dispatch looks up method in the table, serving "_"-prefixed wire
// methods through onExt/onExtNotify after stripping the prefix (spec
// §7.4). isNotification picks which of the two extension hooks a
// "_"-prefixed method reaches: a notification (no id) always goes to
// onExtNotify, a method (with id) always goes to onExt, regardless of
// which hook happens to be non-nil (spec §4.2, §4.3). Unrouted methods
// return ErrMethodNotFound.
func (t *methodTable[Impl]) dispatch(
	ctx context.Context,
	impl Impl,
	method string,
	params json.RawMessage,
	isNotification bool,
	onExt func(ctx context.Context, impl Impl, method string, params json.RawMessage) (any, *RequestError),
	onExtNotify func(ctx context.Context, impl Impl, method string, params json.RawMessage) *RequestError,
) (any, *RequestError) {
	if strings.HasPrefix(method, "_") {
		stripped := strings.TrimPrefix(method, "_")
		if isNotification {
			if onExtNotify != nil {
				return nil, onExtNotify(ctx, impl, stripped, params)
			}
			return nil, ErrMethodNotFound(method)
		}
		if onExt != nil {
			return onExt(ctx, impl, stripped, params)
		}
		return nil, ErrMethodNotFound(method)
	}

	entry, ok := t.routes[method]
	if !ok {
		return nil, ErrMethodNotFound(method)
	}
	return entry.invoke(ctx, impl, params)
}
