// util/error.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hdwx/metproducts/log"
)

// ErrorLogger accumulates validation errors while tracking what is
// currently being validated, so that a single pass can report every
// problem in a configuration file.
type ErrorLogger struct {
	// Tracked via Push()/Pop() calls to remember what we're looking at if
	// an error is found.
	hierarchy []string
	errors    []error
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

// ErrorString records an error; as with fmt.Errorf, a %w verb in s wraps
// the corresponding argument.
func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.errors = append(e.errors, fmt.Errorf(strings.ReplaceAll(e.prefix(), "%", "%%")+s, args...))
}

func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, fmt.Errorf("%s%w", e.prefix(), err))
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errors) > 0
}

func (e *ErrorLogger) Errors() []string {
	s := make([]string, len(e.errors))
	for i, err := range e.errors {
		s[i] = err.Error()
	}
	return s
}

// Err returns nil if no errors have been recorded and otherwise an error
// joining all of them.
func (e *ErrorLogger) Err() error {
	if !e.HaveErrors() {
		return nil
	}
	return errors.Join(e.errors...)
}

func (e *ErrorLogger) String() string {
	return strings.Join(e.Errors(), "\n")
}

// CheckDepth panics if Push and Pop calls were unbalanced since the depth
// d was recorded.
func (e *ErrorLogger) CheckDepth(d int) {
	if e == nil || e.CurrentDepth() == d {
		return
	}

	if r := recover(); r == nil {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Initial ErrorLogger depth %d, final %d\n", d, e.CurrentDepth())
		for _, f := range log.Callstack(nil) {
			fmt.Fprintf(&sb, "%15s:%d %s\n", f.File, f.Line, f.Function)
		}
		panic(sb.String())
	} else {
		panic(r)
	}
}

func (e *ErrorLogger) CurrentDepth() int {
	if e == nil {
		return 0
	}
	return len(e.hierarchy)
}
