// Package platform identifies the runtime a flow is hosted on and provides
// pure helpers for platform-conditional configuration values, replacing
// runtime probing with an explicit enum that is unit-testable without a
// device or browser.
package platform

// ID names a supported host platform.
type ID string

const (
	IOS     ID = "ios"
	Android ID = "android"
	Web     ID = "web"
)

// Known reports whether id names a platform this toolkit understands.
func (id ID) Known() bool {
	switch id {
	case IOS, Android, Web:
		return true
	}
	return false
}

// Select picks the value bound to id from a platform-keyed set. The second
// return is false when no value is bound for id; callers decide the
// fallback.
func Select[T any](id ID, values map[ID]T) (T, bool) {
	v, ok := values[id]
	return v, ok
}
