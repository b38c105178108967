// Package zeroize overwrites sensitive byte slices in place so that
// passwords and derived keys do not linger in memory after a call returns.
package zeroize

import "runtime"

// Bytes overwrites every byte of b with zero. The runtime.KeepAlive call
// keeps the compiler from proving the write is dead and eliding it when b
// is not read again by the caller.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
