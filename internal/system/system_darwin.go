//go:build darwin

// Package system macOS manager implementation.
//
// The native bridge below follows a strict convention: every call writes a
// null-terminated string (or a PID) into a caller-owned fixed-size buffer
// and returns a positive byte length on success, a non-positive value on
// failure. The Go side never reads a buffer before the bridge reports
// success.
package system

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework CoreFoundation -framework IOKit

#include <stdint.h>
#include <string.h>
#include <libproc.h>
#include <AppKit/AppKit.h>
#include <IOKit/IOKitLib.h>

// Copies src into buffer if it fits, returning the byte length written
// (>0) or a non-positive value on failure.
static int32_t copy_to_buffer(const char* src, char* buffer, int32_t size) {
    if (!src) return -1;
    size_t len = strlen(src);
    if (len == 0) return 0;
    if (len >= (size_t)size) return -2;
    memcpy(buffer, src, len);
    buffer[len] = '\0';
    return (int32_t)len;
}

// active_app_identifier writes the frontmost application's bundle
// identifier into buffer.
int32_t active_app_identifier(char* buffer, int32_t size) {
    @autoreleasepool {
        NSRunningApplication* app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (!app || !app.bundleIdentifier) return -1;
        return copy_to_buffer([app.bundleIdentifier UTF8String], buffer, size);
    }
}

// active_app_bundle_path writes the frontmost application's on-disk
// bundle path into buffer.
int32_t active_app_bundle_path(char* buffer, int32_t size) {
    @autoreleasepool {
        NSRunningApplication* app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (!app || !app.bundleURL) return -1;
        return copy_to_buffer([[app.bundleURL path] UTF8String], buffer, size);
    }
}

// secure_input_holder_pid writes the PID of the process holding secure
// keyboard input, read from the kCGSSessionSecureInputPID property of the
// IOHIDSystem registry entry. Returns 1 when a holder exists, 0 when none
// does, negative on failure.
int32_t secure_input_holder_pid(int64_t* pid) {
    io_service_t service = IORegistryEntryFromPath(kIOMasterPortDefault,
                                                   "IOService:/IOResources/IOHIDSystem");
    if (!service) return -1;

    CFTypeRef value = IORegistryEntryCreateCFProperty(service,
                                                      CFSTR("kCGSSessionSecureInputPID"),
                                                      kCFAllocatorDefault, 0);
    IOObjectRelease(service);
    if (!value) return 0;

    int32_t result = 0;
    if (CFGetTypeID(value) == CFNumberGetTypeID()) {
        int64_t holder = -1;
        if (CFNumberGetValue((CFNumberRef)value, kCFNumberSInt64Type, &holder) && holder > 0) {
            *pid = holder;
            result = 1;
        }
    }
    CFRelease(value);
    return result;
}

// path_for_pid writes the filesystem path of the executable backing pid.
// The caller must supply a buffer of at least PROC_PIDPATHINFO_MAXSIZE
// bytes: proc_pidpath fails silently with anything smaller.
int32_t path_for_pid(int64_t pid, char* buffer, int32_t size) {
    int res = proc_pidpath((pid_t)pid, buffer, (uint32_t)size);
    if (res <= 0) return -1;
    if (res < size) buffer[res] = '\0';
    return (int32_t)res;
}
*/
import "C"

import "unsafe"

// darwinManager implements Manager over the NSWorkspace/libproc bridge.
type darwinManager struct{}

// newPlatformManager creates the macOS-specific manager.
func newPlatformManager() Manager {
	return &darwinManager{}
}

// CurrentWindowClass returns the frontmost application's bundle identifier.
func (m *darwinManager) CurrentWindowClass() (string, bool) {
	return bridgeText(identifierBufferSize, func(buf *C.char, size C.int32_t) C.int32_t {
		return C.active_app_identifier(buf, size)
	})
}

// CurrentWindowTitle is defined as the class query on macOS: the bridge
// exposes no separate window-title call, and the expansion engine only
// needs an identifier suitable for rule matching.
func (m *darwinManager) CurrentWindowTitle() (string, bool) {
	return m.CurrentWindowClass()
}

// CurrentWindowExecutable returns the frontmost application's bundle path.
func (m *darwinManager) CurrentWindowExecutable() (string, bool) {
	return bridgeText(identifierBufferSize, func(buf *C.char, size C.int32_t) C.int32_t {
		return C.active_app_bundle_path(buf, size)
	})
}

// SecureInput reports the application currently holding secure keyboard
// input, resolving its PID to a path and display name.
func (m *darwinManager) SecureInput() *SecureInputHolder {
	pid, ok := secureInputPID()
	if !ok {
		return nil
	}
	return resolveSecureInput(pid, pathForPID)
}

// Available reports introspection availability. The NSWorkspace queries
// used here need no accessibility permission.
func (m *darwinManager) Available() (bool, string) {
	return true, "NSWorkspace frontmost-application queries available"
}

// secureInputPID queries the bridge for the PID holding secure input.
// The PID slot contents are ignored unless the bridge reports a holder.
func secureInputPID() (int64, bool) {
	var pid C.int64_t = C.int64_t(unknownPID)
	res := C.secure_input_holder_pid(&pid)
	if res <= 0 {
		return unknownPID, false
	}
	return int64(pid), true
}

// pathForPID resolves a PID to its executable path using the full-size
// path buffer.
func pathForPID(pid int64) (string, bool) {
	return bridgeText(pathBufferSize, func(buf *C.char, size C.int32_t) C.int32_t {
		return C.path_for_pid(C.int64_t(pid), buf, size)
	})
}

// bridgeText allocates a zeroed buffer of the given capacity, invokes a
// bridge call against it, and marshals the result into a Go string. The
// buffer lives only for the duration of the call and is never reused.
func bridgeText(capacity int, call func(*C.char, C.int32_t) C.int32_t) (string, bool) {
	buf := make([]C.char, capacity)
	res := call(&buf[0], C.int32_t(capacity))
	if res <= 0 {
		return "", false
	}
	return textFromBuffer(C.GoBytes(unsafe.Pointer(&buf[0]), C.int(capacity)))
}

var _ Manager = (*darwinManager)(nil)
