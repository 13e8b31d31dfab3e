package backburner

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// workItem is one deferred unit of work. target and method mirror the
// record described in the data model: method is invocable, target is its
// receiver and may be nil, args is the call's argument list. onceKey is
// the zero value unless the item was scheduled with once semantics.
type workItem struct {
	target  any
	method  any // func(args ...any) or a string method name on target
	args    []any
	once    bool
	onceKey onceKey

	corrID uuid.UUID // set only when DEBUG is on; a configured tracer does not set it
	stack  string    // debug capture of the scheduling site, DEBUG only
}

// onceKey identifies a (target, method) pair for dedup. method is reduced
// to either its string name (string-method scheduling) or the function
// pointer backing it (obtained via reflect), since func values themselves
// are not comparable in Go.
type onceKey struct {
	target any
	method any
}

// methodIdentity returns a comparable identity for a schedulable method:
// the method itself if it is already a string name, or its code pointer
// if it is a function value. Panics if method is neither (a programmer
// error at the call site, not a runtime work error).
func methodIdentity(method any) any {
	switch m := method.(type) {
	case string:
		return m
	default:
		v := reflect.ValueOf(method)
		if v.Kind() != reflect.Func {
			panic(fmt.Sprintf("backburner: method must be a func or a string method name, got %T", method))
		}
		return v.Pointer()
	}
}

// resolveMethod turns (target, method) into a callable reflect.Value.
// method may be a func(args ...any) []any, a func(args ...any), a
// func(), or a string naming an exported method on target.
func resolveMethod(target any, method any) (reflect.Value, error) {
	if name, ok := method.(string); ok {
		if target == nil {
			return reflect.Value{}, fmt.Errorf("backburner: method name %q given with nil target", name)
		}
		v := reflect.ValueOf(target).MethodByName(name)
		if !v.IsValid() {
			return reflect.Value{}, fmt.Errorf("backburner: target of type %T has no method %q", target, name)
		}
		return v, nil
	}
	v := reflect.ValueOf(method)
	if v.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("backburner: method must be a func or a string method name, got %T", method)
	}
	return v, nil
}

// invoke resolves and calls method with args, the Go analogue of
// method.apply(target, args). Panics raised by the invoked method are not
// recovered here — that is the caller's responsibility (see onError
// handling in backburner.go), matching spec's "work errors propagate
// unless onError is configured" policy.
func invoke(target any, method any, args []any) error {
	fv, err := resolveMethod(target, method)
	if err != nil {
		return err
	}

	ft := fv.Type()
	variadic := ft.IsVariadic()
	in := make([]reflect.Value, 0, len(args))

	for i, a := range args {
		var want reflect.Type
		switch {
		case variadic && i >= ft.NumIn()-1:
			want = ft.In(ft.NumIn() - 1).Elem()
		case i < ft.NumIn():
			want = ft.In(i)
		default:
			// More args than the function accepts and it isn't variadic:
			// drop the extras, mirroring JS's tolerance of extra call args.
			continue
		}
		in = append(in, coerceArg(a, want))
	}

	// Pad missing arguments with zero values, mirroring JS's "undefined"
	// tolerance for missing parameters.
	for i := len(in); i < ft.NumIn() && (!variadic || i < ft.NumIn()-1); i++ {
		in = append(in, reflect.Zero(ft.In(i)))
	}

	fv.Call(in)
	return nil
}

// coerceArg adapts a dynamically-typed argument to the statically typed
// parameter slot, falling back to the raw reflect.Value of a for an
// interface{}-shaped parameter (the overwhelmingly common case for
// schedule/later/debounce/throttle callbacks).
func coerceArg(a any, want reflect.Type) reflect.Value {
	if a == nil {
		return reflect.Zero(want)
	}
	v := reflect.ValueOf(a)
	if want.Kind() == reflect.Interface || v.Type() == want {
		if want.Kind() == reflect.Interface && !v.Type().Implements(want) {
			// Leave as-is; Call will panic with a clear reflect error if
			// this truly doesn't satisfy the interface.
			return v
		}
		return v
	}
	if v.Type().ConvertibleTo(want) {
		return v.Convert(want)
	}
	return v
}
