package analytics

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampKind tags the shape a raw timestamp arrived in.
type TimestampKind int

const (
	TimestampMissing TimestampKind = iota
	TimestampNative
	TimestampConvertible
	TimestampEpoch
	TimestampString
)

func (k TimestampKind) String() string {
	switch k {
	case TimestampNative:
		return "native"
	case TimestampConvertible:
		return "convertible"
	case TimestampEpoch:
		return "epoch"
	case TimestampString:
		return "string"
	}
	return "missing"
}

// Convertible is any wrapper that knows how to turn itself into a time,
// e.g. a BSON DateTime.
type Convertible interface {
	Time() time.Time
}

// asTimer covers wrappers exposing AsTime, e.g. protobuf timestamps.
type asTimer interface {
	AsTime() time.Time
}

type asTimeFunc func() time.Time

func (f asTimeFunc) Time() time.Time { return f() }

// RawTimestamp is a timestamp field as found in a stored order record.
type RawTimestamp struct {
	Kind    TimestampKind
	native  time.Time
	conv    Convertible
	seconds int64
	nanos   int64
	text    string
}

// NewRawTimestamp classifies v. Unknown shapes are reported as missing.
func NewRawTimestamp(v any) RawTimestamp {
	switch t := v.(type) {
	case nil:
		return RawTimestamp{}
	case RawTimestamp:
		return t
	case time.Time:
		if t.IsZero() {
			return RawTimestamp{}
		}
		return RawTimestamp{Kind: TimestampNative, native: t}
	case *time.Time:
		if t == nil || t.IsZero() {
			return RawTimestamp{}
		}
		return RawTimestamp{Kind: TimestampNative, native: *t}
	case Convertible:
		return RawTimestamp{Kind: TimestampConvertible, conv: t}
	case asTimer:
		return RawTimestamp{Kind: TimestampConvertible, conv: asTimeFunc(t.AsTime)}
	case map[string]any:
		if sec, nanos, ok := epochFields(t); ok {
			return RawTimestamp{Kind: TimestampEpoch, seconds: sec, nanos: nanos}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return RawTimestamp{Kind: TimestampString, text: s}
		}
	}
	return RawTimestamp{}
}

func (r RawTimestamp) Present() bool {
	return r.Kind != TimestampMissing
}

// Resolve converts the timestamp to an instant. It never fails: anything that
// cannot be interpreted resolves to now.
func (r RawTimestamp) Resolve(now time.Time) time.Time {
	t, ok := r.resolve(now.Location())
	if !ok {
		return now
	}
	return t
}

func (r RawTimestamp) resolve(loc *time.Location) (time.Time, bool) {
	switch r.Kind {
	case TimestampNative:
		return r.native, true
	case TimestampConvertible:
		return fromConvertible(r.conv)
	case TimestampEpoch:
		return fromEpoch(r.seconds, r.nanos), true
	case TimestampString:
		if t, ok := parseISO(r.text); ok {
			return t, true
		}
		return parseGeneric(r.text, loc)
	}
	return time.Time{}, false
}

func fromConvertible(c Convertible) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	t = c.Time()
	return t, !t.IsZero()
}

func fromEpoch(seconds, nanos int64) time.Time {
	return time.Unix(seconds, nanos)
}

func parseISO(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var (
	genericLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
		time.RFC850,
		time.RubyDate,
		time.UnixDate,
		time.ANSIC,
		"Mon Jan 02 2006 15:04:05 GMT-0700",
		"Mon Jan 2 2006 15:04:05 GMT-0700",
		"January 2, 2006 at 3:04:05 PM",
		"January 2, 2006 15:04:05",
		"January 2, 2006",
		"Jan 2, 2006",
		"02.01.2006 15:04",
		"02.01.2006",
		"01/02/2006 15:04:05",
		"01/02/2006",
	}

	// trailing zone names such as " (Tashkent Standard Time)" or " UTC+5"
	zoneSuffix = regexp.MustCompile(`\s*(\([^)]*\)|UTC[+-]\d+)$`)
)

// parseGeneric tries the looser date strings found in older records.
// Layouts without a zone are read in loc.
func parseGeneric(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(zoneSuffix.ReplaceAllString(s, ""))
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// epochFields reads a {seconds, nanoseconds} wrapper. Both the plain and the
// underscore-prefixed key spellings occur in exported data.
func epochFields(m map[string]any) (seconds, nanos int64, ok bool) {
	sv, found := m["seconds"]
	if !found {
		sv, found = m["_seconds"]
	}
	if !found {
		return 0, 0, false
	}
	seconds, ok = toInt64(sv)
	if !ok {
		return 0, 0, false
	}
	nv, found := m["nanoseconds"]
	if !found {
		nv = m["_nanoseconds"]
	}
	nanos, _ = toInt64(nv)
	return seconds, nanos, true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}
