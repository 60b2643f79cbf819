package logging

import (
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// maxCallDepth bounds how many frames are captured per log call.
const maxCallDepth = 64

// ChainSeparator joins call chain entries in rendered output.
const ChainSeparator = ">"

var selfPackage = reflect.TypeFor[Router]().PkgPath()

// selfDir is the source directory of this package. Generic helpers such as
// Track are instantiated under the caller's package name, so their frames
// are recognized by file instead.
var selfDir = func() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}()

// reservedPackages are infrastructure packages whose frames never appear in
// a call chain. Nested packages are covered by prefix.
var reservedPackages = []string{
	"runtime",
	"log",
	"sync",
	"reflect",
	"testing",
	"github.com/fatih/color",
	"github.com/schollz/progressbar/v3",
}

// Compiler-generated wrappers around defer and go statements.
var trampolinePattern = regexp.MustCompile(`^(deferwrap|gowrap)\d+$`)

// Bodies of range-over-func loops are named after the enclosing function
// with one -rangeN suffix per nesting level.
var rangeBodyPattern = regexp.MustCompile(`(-range\d+)+$`)

// CallChainExtractor turns a captured stack into the ordered list of
// application functions that led to a log call.
type CallChainExtractor struct {
	excluded map[string]struct{}
}

// NewCallChainExtractor builds an extractor that additionally drops frames
// whose short function name is listed in exclude.
func NewCallChainExtractor(exclude ...string) *CallChainExtractor {
	e := &CallChainExtractor{excluded: make(map[string]struct{}, len(exclude))}
	for _, name := range exclude {
		if name = strings.TrimSpace(name); name != "" {
			e.excluded[name] = struct{}{}
		}
	}
	return e
}

// Capture records the caller's stack, skipping skip frames above Capture.
func Capture(skip int) []uintptr {
	var pcs [maxCallDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	return pcs[:n]
}

// Extract returns the call chain outermost first, with consecutive repeats
// collapsed. When every frame is filtered the immediate caller is returned.
func (e *CallChainExtractor) Extract(pcs []uintptr) []string {
	chain, _ := e.resolve(pcs)
	return chain
}

// Caller reports the innermost frame that survives filtering, falling back
// to the innermost frame outside the logging library.
func (e *CallChainExtractor) Caller(pcs []uintptr) (runtime.Frame, bool) {
	_, frame := e.resolve(pcs)
	return frame, frame.PC != 0
}

func (e *CallChainExtractor) resolve(pcs []uintptr) ([]string, runtime.Frame) {
	if len(pcs) > maxCallDepth {
		pcs = pcs[:maxCallDepth]
	}
	if len(pcs) == 0 {
		return []string{"unknown"}, runtime.Frame{}
	}

	var (
		kept      []string
		first     runtime.Frame
		haveFirst bool
		leaf      runtime.Frame
		haveLeaf  bool
	)
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		// The fallback is the innermost frame outside the logging library.
		if !haveFirst && frame.Function != "" && !isLibraryFrame(frame) {
			first = frame
			haveFirst = true
		}
		if frame.Function != "" && e.keep(frame) {
			kept = append(kept, chainName(frame.Function))
			if !haveLeaf {
				leaf = frame
				haveLeaf = true
			}
		}
		if !more {
			break
		}
	}

	if len(kept) == 0 {
		name := chainName(first.Function)
		if name == "" {
			name = "unknown"
		}
		return []string{name}, first
	}

	chain := make([]string, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		if n := len(chain); n > 0 && chain[n-1] == kept[i] {
			continue
		}
		chain = append(chain, kept[i])
	}
	return chain, leaf
}

func (e *CallChainExtractor) keep(frame runtime.Frame) bool {
	if !strings.HasSuffix(frame.File, ".go") || isLibraryFrame(frame) {
		return false
	}
	short := chainName(frame.Function)
	last := short
	if i := strings.LastIndexByte(short, '.'); i >= 0 {
		last = short[i+1:]
	}
	if trampolinePattern.MatchString(last) {
		return false
	}
	if e != nil {
		if _, ok := e.excluded[short]; ok {
			return false
		}
	}
	return true
}

// isLibraryFrame reports frames from this package's non-test sources and
// from reserved infrastructure packages.
func isLibraryFrame(frame runtime.Frame) bool {
	if !strings.HasSuffix(frame.File, "_test.go") {
		if funcPackage(frame.Function) == selfPackage {
			return true
		}
		if selfDir != "" && filepath.Dir(frame.File) == selfDir {
			return true
		}
	}
	pkg := funcPackage(frame.Function)
	for _, reserved := range reservedPackages {
		if pkg == reserved || strings.HasPrefix(pkg, reserved+"/") {
			return true
		}
	}
	return false
}

// chainName is the short function name with range-over-func body suffixes
// folded into the enclosing function.
func chainName(fn string) string {
	return rangeBodyPattern.ReplaceAllString(shortFuncName(fn), "")
}

// funcPackage returns the import path portion of a fully qualified runtime
// function name such as "example.com/pkg.(*T).Method".
func funcPackage(fn string) string {
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot < 0 {
		return fn
	}
	return fn[:slash+1+dot]
}

// shortFuncName strips the package path and pointer receiver decoration:
// "example.com/pkg.(*T).Method" becomes "T.Method".
func shortFuncName(fn string) string {
	if fn == "" {
		return ""
	}
	pkg := funcPackage(fn)
	name := strings.TrimPrefix(fn[len(pkg):], ".")
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")
	return name
}
