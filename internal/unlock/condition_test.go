package unlock

import (
	"testing"
	"time"
)

func TestParseConditions_AllVariants(t *testing.T) {
	raw := []byte(`[
		{"type":"stamp-required","stampId":"s1","stampName":"Harbour Stamp"},
		{"type":"task-required","taskId":"t1","taskName":"Find the lighthouse"},
		{"type":"time-window","startTime":"2025-06-01T18:00:00Z","endTime":"2025-06-01T22:00:00+01:00"},
		{"type":"geofence","lat":57.15,"lng":-2.09,"radius":150},
		{"type":"sign-in"}
	]`)

	conds := ParseConditions(raw)
	if len(conds) != 5 {
		t.Fatalf("expected 5 conditions, got %d", len(conds))
	}

	if got, ok := conds[0].(StampRequired); !ok || got.StampID != "s1" || got.StampName != "Harbour Stamp" {
		t.Errorf("conds[0] = %#v", conds[0])
	}
	if got, ok := conds[1].(TaskRequired); !ok || got.TaskID != "t1" || got.TaskName != "Find the lighthouse" {
		t.Errorf("conds[1] = %#v", conds[1])
	}
	tw, ok := conds[2].(TimeWindow)
	if !ok {
		t.Fatalf("conds[2] = %#v", conds[2])
	}
	if !tw.Start.Equal(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %s", tw.Start)
	}
	if !tw.End.Equal(time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %s", tw.End)
	}
	if got, ok := conds[3].(Geofence); !ok || got.Lat != 57.15 || got.Lng != -2.09 || got.RadiusMeters != 150 {
		t.Errorf("conds[3] = %#v", conds[3])
	}
	if _, ok := conds[4].(SignInRequired); !ok {
		t.Errorf("conds[4] = %#v", conds[4])
	}
}

func TestParseConditions_PreservesOrder(t *testing.T) {
	conds := ParseConditions([]byte(`[{"type":"sign-in"},{"type":"stamp-required","stampId":"a"}]`))
	if len(conds) != 2 || conds[0].Type() != TypeSignIn || conds[1].Type() != TypeStampRequired {
		t.Fatalf("unexpected order: %#v", conds)
	}
}

func TestParseConditions_NoRestrictionPayloads(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", "{}", `"oops"`, "not json"} {
		if conds := ParseConditions([]byte(raw)); len(conds) != 0 {
			t.Errorf("ParseConditions(%q) = %#v, want none", raw, conds)
		}
	}
}

func TestParseConditions_UnrecognisedBecomesUnknown(t *testing.T) {
	raw := []byte(`[
		{"type":"moon-phase","phase":"full"},
		{"stampId":"s1"},
		42,
		{"type":7}
	]`)
	conds := ParseConditions(raw)
	if len(conds) != 4 {
		t.Fatalf("expected 4 conditions, got %d", len(conds))
	}
	for i, c := range conds {
		if _, ok := c.(Unknown); !ok {
			t.Errorf("conds[%d] = %#v, want Unknown", i, c)
		}
	}
	if conds[0].Type() != "moon-phase" {
		t.Errorf("unknown tag = %q", conds[0].Type())
	}

	// Fail-open: nothing here restricts access.
	if got := Evaluate(conds, Context{}); !got.IsUnlocked {
		t.Errorf("got %+v, want unlocked", got)
	}
}

func TestParseConditions_MistypedFieldsKeepTheirTag(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Condition
	}{
		{"sign-in with stray field", `[{"type":"sign-in","radius":"big"}]`, SignInRequired{}},
		{"numeric stamp id", `[{"type":"stamp-required","stampId":42,"stampName":["x"]}]`, StampRequired{}},
		{"numeric task id", `[{"type":"task-required","taskId":true,"taskName":"Walk"}]`, TaskRequired{TaskName: "Walk"}},
		{"string coordinates", `[{"type":"geofence","lat":"51.5","lng":"0.1"}]`, Geofence{}},
		{"epoch millis", `[{"type":"time-window","startTime":1,"endTime":2}]`,
			TimeWindow{Start: time.UnixMilli(1).UTC(), End: time.UnixMilli(2).UTC()}},
		{"unparseable bounds", `[{"type":"time-window","startTime":"soon","endTime":"later"}]`, TimeWindow{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conds := ParseConditions([]byte(tt.raw))
			if len(conds) != 1 {
				t.Fatalf("expected 1 condition, got %d", len(conds))
			}
			if conds[0] != tt.want {
				t.Errorf("got %#v, want %#v", conds[0], tt.want)
			}
		})
	}
}

func TestParseTimestamp_ZonelessIsUTC(t *testing.T) {
	got, ok := parseTimestamp("2025-06-01T18:30")
	if !ok {
		t.Fatal("expected datetime-local value to parse")
	}
	if !got.Equal(time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("got %s", got)
	}
}
