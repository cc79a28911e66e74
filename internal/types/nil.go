package types

import "reflect"

// IsNil reports whether v is nil, including typed nils held in an interface
// (nil pointers, maps, slices, funcs and channels). Stored values and factory
// results that are nil are treated as absent and never written to the cache.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
