package unlock

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate reports field-level problems in a stored condition list, keyed by
// path (e.g. "unlockConditions[1].taskId"). It is meant for admin writes; the
// evaluator itself tolerates everything Validate rejects.
//
// Inverted time windows are accepted unchanged.
func Validate(raw []byte) map[string]string {
	errs := make(map[string]string)
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return errs
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		errs["unlockConditions"] = "must be a JSON array of conditions"
		return errs
	}

	for i, elem := range elems {
		field := fmt.Sprintf("unlockConditions[%d]", i)
		f, tag, ok := decodeFields(elem)
		if !ok {
			errs[field] = "must be a JSON object with a string type"
			continue
		}
		switch tag {
		case TypeStampRequired:
			requireID(errs, f, field, "stampId")
		case TypeTaskRequired:
			requireID(errs, f, field, "taskId")
		case TypeTimeWindow:
			for _, name := range []string{"startTime", "endTime"} {
				if _, ok := f.instant(name); !ok {
					errs[field+"."+name] = name + " must be an RFC 3339 timestamp or epoch milliseconds"
				}
			}
		case TypeGeofence:
			checkRange(errs, f, field, "lat", -90, 90)
			checkRange(errs, f, field, "lng", -180, 180)
			if r, ok := f.num("radius"); ok && r < 0 {
				errs[field+".radius"] = "radius must not be negative"
			} else if _, present := f["radius"]; present && !ok {
				errs[field+".radius"] = "radius must be a number"
			}
		case TypeSignIn:
		case "":
			if _, present := f["type"]; present {
				errs[field+".type"] = "type must be a string"
			} else {
				errs[field+".type"] = "type is required"
			}
		default:
			errs[field+".type"] = fmt.Sprintf("unknown condition type %q", tag)
		}
	}
	return errs
}

func requireID(errs map[string]string, f fields, field, name string) {
	if id, ok := f.str(name); !ok || strings.TrimSpace(id) == "" {
		errs[field+"."+name] = name + " is required and must be a string"
	}
}

// checkRange reports an optional numeric field that is mistyped or out of range.
func checkRange(errs map[string]string, f fields, field, name string, lo, hi float64) {
	if _, present := f[name]; !present {
		return
	}
	v, ok := f.num(name)
	switch {
	case !ok:
		errs[field+"."+name] = name + " must be a number"
	case v < lo || v > hi:
		errs[field+"."+name] = fmt.Sprintf("%s must be between %g and %g", name, lo, hi)
	}
}
