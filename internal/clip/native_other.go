//go:build !darwin && !linux && !windows

package clip

// newNative is unavailable on platforms golang.design/x/clipboard doesn't
// support.
func newNative() (Backend, error) {
	return nil, ErrUnavailable
}
