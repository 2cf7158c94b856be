package system

import (
	"bytes"
	"unicode/utf8"
)

// Buffer capacities for bridge calls. The path buffer must match the OS
// maximum-path guarantee (PROC_PIDPATHINFO_MAXSIZE on macOS): proc_pidpath
// fails silently when handed anything smaller, so the size is load-bearing.
const (
	identifierBufferSize = 250
	pathBufferSize       = 4096
)

// textFromBuffer interprets a bridge-filled buffer as a null-terminated
// byte string. Invalid UTF-8 is treated as absence, the same as a failed
// bridge call. The buffer must only be handed here after the bridge
// reported a positive status.
func textFromBuffer(buf []byte) (string, bool) {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	raw := buf[:n]
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}
