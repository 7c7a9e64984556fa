//go:build !unix

package fsweep

func isCrossDevice(err error) bool {
	return false
}
