package compute

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrResourceNotFound reports a missing program source or asset.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidArgument reports a bad kernel argument, size or handle.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOwnership reports an acquire/release or access out of order.
	ErrOwnership = errors.New("shared image ownership violation")
	// ErrDependencyFailed is reported by commands whose wait list failed.
	ErrDependencyFailed = errors.New("event in wait list failed")
	// ErrProfilingUnavailable is returned by Profile when the queue was
	// created without profiling or the command has not run.
	ErrProfilingUnavailable = errors.New("profiling info not available")
	// ErrUnsupportedLayout reports an FFT description the device cannot run.
	ErrUnsupportedLayout = errors.New("unsupported fft layout")
	// ErrReleased reports use of an object after Release or Close.
	ErrReleased = errors.New("object already released")
	// ErrForeignObject reports an object created by another device.
	ErrForeignObject = errors.New("object belongs to another device")
)

// DeviceError names the failing device call and the code reported by the
// driver.
type DeviceError struct {
	Op   string
	Code int
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (%d): %v", e.Op, CodeName(e.Code), e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// BuildError carries the build log of every device a program failed on.
type BuildError struct {
	Program string
	Logs    map[string]string
}

func (e *BuildError) Error() string {
	names := make([]string, 0, len(e.Logs))
	for name := range e.Logs {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	fmt.Fprintf(&b, "building program %s failed", e.Program)
	for _, name := range names {
		fmt.Fprintf(&b, "\n%s: %s", name, strings.TrimSpace(e.Logs[name]))
	}
	return b.String()
}

var codeNames = map[int]string{
	-1:  "CL_DEVICE_NOT_FOUND",
	-2:  "CL_DEVICE_NOT_AVAILABLE",
	-3:  "CL_COMPILER_NOT_AVAILABLE",
	-4:  "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	-5:  "CL_OUT_OF_RESOURCES",
	-6:  "CL_OUT_OF_HOST_MEMORY",
	-7:  "CL_PROFILING_INFO_NOT_AVAILABLE",
	-11: "CL_BUILD_PROGRAM_FAILURE",
	-14: "CL_EXEC_STATUS_ERROR_FOR_EVENTS_IN_WAIT_LIST",
	-30: "CL_INVALID_VALUE",
	-36: "CL_INVALID_COMMAND_QUEUE",
	-38: "CL_INVALID_MEM_OBJECT",
	-46: "CL_INVALID_KERNEL_NAME",
	-48: "CL_INVALID_KERNEL",
	-49: "CL_INVALID_ARG_INDEX",
	-50: "CL_INVALID_ARG_VALUE",
	-51: "CL_INVALID_ARG_SIZE",
	-52: "CL_INVALID_KERNEL_ARGS",
	-53: "CL_INVALID_WORK_DIMENSION",
	-54: "CL_INVALID_WORK_GROUP_SIZE",
	-57: "CL_INVALID_EVENT_WAIT_LIST",
	-58: "CL_INVALID_EVENT",
	-59: "CL_INVALID_OPERATION",
	-60: "CL_INVALID_GL_OBJECT",
	-61: "CL_INVALID_BUFFER_SIZE",
	-63: "CL_INVALID_GLOBAL_WORK_SIZE",
	-1001: "CL_PLATFORM_NOT_FOUND_KHR",
}

// CodeName maps an OpenCL style status code to its symbolic name.
func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "unknown error"
}
