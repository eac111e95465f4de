package errors

import (
	"fmt"
	"runtime"
)

type stack []uintptr

func callers() *stack {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	var st stack = pcs[0:n]
	return &st
}

// fullStack renders the captured frames as "file:line func" lines.
func (s *stack) fullStack() []string {
	if s == nil {
		return nil
	}
	frames := runtime.CallersFrames(*s)
	var lines []string
	for {
		frame, more := frames.Next()
		lines = append(lines, fmt.Sprintf("%v:%v %v", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return lines
}
