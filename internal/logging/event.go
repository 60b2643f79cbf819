package logging

import (
	"log/slog"
	"runtime"
	"strings"
	"time"
)

// Reserved attribute keys carrying router metadata through slog handlers.
// They are consumed when building an Event and never rendered as fields.
const (
	keyChain    = "devlog.chain"
	keyContext  = "devlog.context"
	keyThread   = "devlog.thread"
	keyTrace    = "devlog.trace"
	keyPlain    = "devlog.plain"
	keyFileOnly = "devlog.file_only"
	keySource   = "devlog.source"
)

// Plain marks a record for verbatim output with no decoration.
func Plain() Attr { return slog.Bool(keyPlain, true) }

// FileOnly keeps a record off the console sink.
func FileOnly() Attr { return slog.Bool(keyFileOnly, true) }

// Event is the immutable view of one log call handed to the formatter.
type Event struct {
	Level     slog.Level
	Message   string
	Time      time.Time
	Thread    string
	File      string
	Line      int
	Function  string
	CallChain []string
	Context   string
	Attrs     []Attr
	Trace     string
	Plain     bool
	FileOnly  bool
}

// newEvent merges handler-scoped attributes with the record's own and
// lifts the reserved router metadata into typed fields.
func newEvent(record slog.Record, handlerAttrs []slog.Attr, groups []string) Event {
	ev := Event{
		Level:   record.Level,
		Message: record.Message,
		Time:    record.Time,
		Thread:  MainThread,
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	flat := make([]slog.Attr, 0, record.NumAttrs()+len(handlerAttrs))
	for _, attr := range handlerAttrs {
		flat = flattenAttr(flat, "", attr)
	}
	prefix := strings.Join(groups, ".")
	record.Attrs(func(attr slog.Attr) bool {
		if !ev.consume(attr) {
			flat = flattenAttr(flat, prefix, attr)
		}
		return true
	})
	for _, attr := range lastByKey(flat) {
		if !ev.consume(attr) {
			ev.Attrs = append(ev.Attrs, attr)
		}
	}

	if ev.File == "" && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		ev.File = frame.File
		ev.Line = frame.Line
		ev.Function = shortFuncName(frame.Function)
	}
	if len(ev.CallChain) == 0 && ev.Function != "" {
		ev.CallChain = []string{ev.Function}
	}
	return ev
}

func (ev *Event) consume(attr slog.Attr) bool {
	value := attr.Value.Resolve()
	switch attr.Key {
	case keyChain:
		if chain, ok := value.Any().([]string); ok {
			ev.CallChain = chain
		}
	case keyContext:
		ev.Context = value.String()
	case keyThread:
		if name := value.String(); name != "" {
			ev.Thread = name
		}
	case keyTrace:
		ev.Trace = value.String()
	case keyPlain:
		ev.Plain = value.Kind() == slog.KindBool && value.Bool()
	case keyFileOnly:
		ev.FileOnly = value.Kind() == slog.KindBool && value.Bool()
	case keySource:
		if src, ok := value.Any().(*slog.Source); ok && src != nil {
			ev.File = src.File
			ev.Line = src.Line
			ev.Function = shortFuncName(src.Function)
		}
	default:
		return false
	}
	return true
}

// flattenAttr appends attr to dst with group members expanded into dotted
// keys. Empty attributes are dropped.
func flattenAttr(dst []slog.Attr, prefix string, attr slog.Attr) []slog.Attr {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	key := joinKey(prefix, attr.Key)
	if attr.Value.Kind() != slog.KindGroup {
		if key == "" {
			return dst
		}
		return append(dst, slog.Attr{Key: key, Value: attr.Value})
	}
	for _, member := range attr.Value.Group() {
		dst = flattenAttr(dst, key, member)
	}
	return dst
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// lastByKey keeps the first position of every key with its last value.
func lastByKey(attrs []slog.Attr) []slog.Attr {
	if len(attrs) < 2 {
		return attrs
	}
	index := make(map[string]int, len(attrs))
	out := attrs[:0:0]
	for _, attr := range attrs {
		if pos, ok := index[attr.Key]; ok {
			out[pos].Value = attr.Value
			continue
		}
		index[attr.Key] = len(out)
		out = append(out, attr)
	}
	return out
}

// nestInGroups wraps attrs in the open groups, outermost first.
func nestInGroups(groups []string, attrs []slog.Attr) slog.Attr {
	group := slog.Attr{Key: groups[len(groups)-1], Value: slog.GroupValue(attrs...)}
	for i := len(groups) - 2; i >= 0; i-- {
		group = slog.Attr{Key: groups[i], Value: slog.GroupValue(group)}
	}
	return group
}
