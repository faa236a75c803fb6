// Package unlock decides whether a piece of content (a custom button or a
// sub-chapter) is unlocked for a user.
//
// A content item owns an ordered list of conditions. Evaluation is
// conjunctive and stops at the first failing condition, whose hint is what
// the user sees. An empty or absent list never locks anything.
package unlock

import (
	"encoding/json"
	"strings"
	"time"
)

// Condition type tags as stored by the admin editor.
const (
	TypeStampRequired = "stamp-required"
	TypeTaskRequired  = "task-required"
	TypeTimeWindow    = "time-window"
	TypeGeofence      = "geofence"
	TypeSignIn        = "sign-in"
)

// Condition is one unlock rule. The set of implementations is closed:
// StampRequired, TaskRequired, TimeWindow, Geofence, SignInRequired and
// Unknown (anything the decoder could not recognise).
type Condition interface {
	Type() string
	condition()
}

// StampRequired passes when the user owns the stamp. An empty StampID
// matches nothing.
type StampRequired struct {
	StampID   string
	StampName string
}

// TaskRequired passes when the user has completed the task. An empty TaskID
// matches nothing.
type TaskRequired struct {
	TaskID   string
	TaskName string
}

// TimeWindow passes while the clock is inside [Start, End], both ends included.
// A window with Start after End never opens, and neither does one with a zero
// bound (a bound that was missing or could not be parsed).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Geofence passes when the request carries a location. The radius is kept
// for display and future distance checks but is not compared today.
type Geofence struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
}

// SignInRequired passes for any signed-in user.
type SignInRequired struct{}

// Unknown holds a stored condition whose tag is missing or unrecognised, or
// an element that is not a JSON object.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

func (StampRequired) Type() string  { return TypeStampRequired }
func (TaskRequired) Type() string   { return TypeTaskRequired }
func (TimeWindow) Type() string     { return TypeTimeWindow }
func (Geofence) Type() string       { return TypeGeofence }
func (SignInRequired) Type() string { return TypeSignIn }
func (u Unknown) Type() string      { return u.Tag }

func (StampRequired) condition()  {}
func (TaskRequired) condition()   {}
func (TimeWindow) condition()     {}
func (Geofence) condition()       {}
func (SignInRequired) condition() {}
func (Unknown) condition()        {}

// Location is a user's reported position.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Context is the per-request view of the user. Missing fields are ordinary
// inputs that make the corresponding conditions fail.
type Context struct {
	UserID         string    `json:"userId,omitempty"`
	Stamps         []string  `json:"stamps,omitempty"`
	CompletedTasks []string  `json:"completedTasks,omitempty"`
	Location       *Location `json:"location,omitempty"`
}

// Result is the outcome of evaluating a condition list.
type Result struct {
	IsUnlocked bool   `json:"isUnlocked"`
	Hint       string `json:"hint,omitempty"`
}

// fields is one stored condition object, decoded lazily per field so that a
// wrongly typed field never hides the tag it belongs to.
type fields map[string]json.RawMessage

// decodeFields reads a condition object and its tag. ok is false when raw is
// not a JSON object; tag is empty when "type" is missing or not a string.
func decodeFields(raw json.RawMessage) (f fields, tag string, ok bool) {
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, "", false
	}
	tag, _ = f.str("type")
	return f, tag, true
}

// str returns a string field. ok is false when it is absent or not a string.
func (f fields) str(name string) (string, bool) {
	var s string
	if err := json.Unmarshal(f[name], &s); err != nil {
		return "", false
	}
	return s, true
}

// num returns a numeric field. ok is false when it is absent or not a number.
func (f fields) num(name string) (float64, bool) {
	var n float64
	if err := json.Unmarshal(f[name], &n); err != nil {
		return 0, false
	}
	return n, true
}

// instant returns a timestamp field given as a string (see parseTimestamp)
// or as epoch milliseconds.
func (f fields) instant(name string) (time.Time, bool) {
	if s, ok := f.str(name); ok {
		return parseTimestamp(s)
	}
	if ms, ok := f.num(name); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts RFC 3339 and the zone-less forms produced by
// datetime-local inputs. Zone-less values are read as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseConditions decodes a stored condition list. It never fails: null,
// empty or non-array payloads decode to no conditions, and elements that
// cannot be understood become Unknown.
func ParseConditions(raw []byte) []Condition {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return nil
	}
	conds := make([]Condition, 0, len(elems))
	for _, elem := range elems {
		conds = append(conds, parseCondition(elem))
	}
	return conds
}

// parseCondition dispatches on the tag alone. A recognised tag always keeps
// its rule: fields of the wrong type are treated as missing, which for ids
// matches nothing and for time bounds keeps the window closed. Only an
// unrecognised or missing tag yields Unknown.
func parseCondition(raw json.RawMessage) Condition {
	f, tag, ok := decodeFields(raw)
	if !ok {
		return Unknown{Raw: raw}
	}
	switch tag {
	case TypeStampRequired:
		id, _ := f.str("stampId")
		name, _ := f.str("stampName")
		return StampRequired{StampID: id, StampName: name}
	case TypeTaskRequired:
		id, _ := f.str("taskId")
		name, _ := f.str("taskName")
		return TaskRequired{TaskID: id, TaskName: name}
	case TypeTimeWindow:
		start, _ := f.instant("startTime")
		end, _ := f.instant("endTime")
		return TimeWindow{Start: start, End: end}
	case TypeGeofence:
		lat, _ := f.num("lat")
		lng, _ := f.num("lng")
		radius, _ := f.num("radius")
		return Geofence{Lat: lat, Lng: lng, RadiusMeters: radius}
	case TypeSignIn:
		return SignInRequired{}
	default:
		return Unknown{Tag: tag, Raw: raw}
	}
}
