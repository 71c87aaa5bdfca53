package lazy

import "fmt"

// Value is a deferred value in one of four conceptual states: unset,
// convention (a declared default), explicit (a supplied override), or derived
// (computed from other values on read). Nothing is evaluated until Get is
// called.
//
// Resolution order on read: an explicit or derived source wins if one was
// supplied; otherwise the convention applies; otherwise the value is unset.
// Repeated Set calls replace the source, so the last applied override wins.
type Value[T any] struct {
	name       string
	source     func() (T, bool)
	convention func() (T, bool)
	frozen     bool
}

// New returns an unset Value. The name is used in diagnostics only.
func New[T any](name string) *Value[T] {
	return &Value[T]{name: name}
}

// Of returns a Value already holding an explicit result.
func Of[T any](name string, v T) *Value[T] {
	val := New[T](name)
	val.Set(v)
	return val
}

// Deferred returns a Value whose result is computed by fn on every read.
// fn reporting false means the value resolves to unset.
func Deferred[T any](name string, fn func() (T, bool)) *Value[T] {
	return &Value[T]{name: name, source: fn}
}

// Convention declares the default used when no explicit or derived source is
// ever supplied. It returns the receiver so declarations can be chained.
func (v *Value[T]) Convention(def T) *Value[T] {
	v.checkWritable()
	v.convention = func() (T, bool) { return def, true }
	return v
}

// ConventionFunc is Convention with a late-bound default. fn may itself
// report false, leaving the value unset.
func (v *Value[T]) ConventionFunc(fn func() (T, bool)) *Value[T] {
	v.checkWritable()
	v.convention = fn
	return v
}

// Set supplies an explicit result, replacing any previously applied override.
func (v *Value[T]) Set(val T) {
	v.checkWritable()
	v.source = func() (T, bool) { return val, true }
}

// SetDeferred supplies a derived source, replacing any previously applied
// override. fn runs on every read.
func (v *Value[T]) SetDeferred(fn func() (T, bool)) {
	v.checkWritable()
	v.source = fn
}

// Get resolves the value. The second return is false when the value is unset.
func (v *Value[T]) Get() (T, bool) {
	if v.source != nil {
		return v.source()
	}
	if v.convention != nil {
		return v.convention()
	}
	var zero T
	return zero, false
}

// MustGet resolves the value and panics if it is unset. Reading an unset
// value through MustGet is a caller contract violation, not a runtime
// condition to handle.
func (v *Value[T]) MustGet() T {
	out, ok := v.Get()
	if !ok {
		panic(fmt.Sprintf("lazy: read of unset value %q", v.name))
	}
	return out
}

// GetOr resolves the value, substituting def when it is unset.
func (v *Value[T]) GetOr(def T) T {
	if out, ok := v.Get(); ok {
		return out
	}
	return def
}

// Freeze forbids all further writes. Set, SetDeferred and Convention panic
// after Freeze; reads are unaffected.
func (v *Value[T]) Freeze() {
	v.frozen = true
}

func (v *Value[T]) checkWritable() {
	if v.frozen {
		panic(fmt.Sprintf("lazy: write to frozen value %q", v.name))
	}
}

// Filter returns a derived Value that resolves to the receiver's result when
// pred holds, and to unset otherwise. pred is never called on an unset
// receiver.
func (v *Value[T]) Filter(pred func(T) bool) *Value[T] {
	return Deferred(v.name, func() (T, bool) {
		out, ok := v.Get()
		if !ok || !pred(out) {
			var zero T
			return zero, false
		}
		return out, true
	})
}

// OrElse returns a derived Value that resolves to fallback only when the
// receiver is unset.
func (v *Value[T]) OrElse(fallback T) *Value[T] {
	return Deferred(v.name, func() (T, bool) {
		if out, ok := v.Get(); ok {
			return out, true
		}
		return fallback, true
	})
}

// Map returns a derived Value applying f to the resolved input. f is not
// called until the result is read, and never when v is unset.
func Map[T, U any](v *Value[T], f func(T) U) *Value[U] {
	return Deferred(v.name, func() (U, bool) {
		out, ok := v.Get()
		if !ok {
			var zero U
			return zero, false
		}
		return f(out), true
	})
}

// Zip returns a derived Value combining two inputs with f. If either input
// is unset the result is unset and f is not called.
func Zip[A, B, C any](a *Value[A], b *Value[B], f func(A, B) C) *Value[C] {
	return Deferred(a.name, func() (C, bool) {
		av, ok := a.Get()
		if !ok {
			var zero C
			return zero, false
		}
		bv, ok := b.Get()
		if !ok {
			var zero C
			return zero, false
		}
		return f(av, bv), true
	})
}
