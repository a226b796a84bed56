//go:build !linux

package blockdev

import "io"

// blockDeviceSize has no portable equivalent outside Linux; callers always
// fall back to Seek-based sizing.
func blockDeviceSize(stream io.Seeker) (int64, bool) {
	return 0, false
}
