// Package goid identifies the current goroutine. The UI runtime is
// single-threaded by contract, and UI-affecting calls arriving on other
// goroutines must be marshaled onto the loop; that requires knowing
// whether the caller already is the loop goroutine.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// ID returns the current goroutine's id.
//
// There is no supported API for this; parsing the stack header is the
// established workaround in UI toolkits that need loop-affinity checks.
// The id is used only for equality comparison, never dereferenced.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], prefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
