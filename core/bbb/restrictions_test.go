package bbb

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *Availability {
	t.Helper()
	avail, err := ParseAvailability(raw)
	require.NoError(t, err)
	return avail
}

func TestParseAvailability(t *testing.T) {
	for _, raw := range []string{"", " ", "null"} {
		avail, err := ParseAvailability(raw)
		assert.NoError(t, err)
		assert.Nil(t, avail, "%q", raw)
	}

	_, err := ParseAvailability(`{"op":"&","c":[`)
	assert.Error(t, err)

	avail := mustParse(t, `{"op":"|","c":[{"type":"group","id":5},{"type":"date","d":"<","t":1}],"showc":[true,false]}`)
	assert.Equal(t, "|", avail.Op)
	require.Len(t, avail.Conditions, 2)
	assert.Equal(t, 5, avail.Conditions[0].ID.Int)
	assert.Equal(t, []bool{true, false}, avail.ShowC)
	assert.True(t, HasRestrictions(avail))

	assert.False(t, HasRestrictions(nil))
	assert.False(t, HasRestrictions(mustParse(t, `{"op":"&","c":[],"showc":[]}`)))
}

func TestManager_FormatRestrictions(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC).Unix()

	tests := []struct {
		name string
		raw  string
		kind Kind
		text string
	}{
		{"date from", `{"type":"date","d":">=","t":` + itoa(ts) + `}`, KindDate, "Available from: 05/03/2024 14:30"},
		{"date without operator", `{"type":"date","t":` + itoa(ts) + `}`, KindDate, "Available from: 05/03/2024 14:30"},
		{"date until", `{"type":"date","d":"<=","t":` + itoa(ts) + `}`, KindDate, "Available until: 05/03/2024 14:30"},
		{"date before", `{"type":"date","d":"<","t":` + itoa(ts) + `}`, KindDate, "Available until: 05/03/2024 14:30"},
		{"date other operator", `{"type":"date","d":"=","t":` + itoa(ts) + `}`, KindDate, "Available at: 05/03/2024 14:30"},
		{"group resolved", `{"type":"group","id":5}`, KindGroup, "Team A"},
		{"group unresolved", `{"type":"group","id":6}`, KindGroup, "Group #6"},
		{"profile standard field", `{"type":"profile","sf":"email","op":"contains","v":"@school.edu"}`, KindProfile, "Profile field 'email': @school.edu"},
		{"profile custom field", `{"type":"profile","cf":"campus","op":"isequalto","v":"North"}`, KindProfile, "Profile field 'campus': North"},
		{"completion default", `{"type":"completion","cm":42}`, KindCompletion, "Requires activity '42' completed"},
		{"completion expected", `{"type":"completion","cm":42,"e":1}`, KindCompletion, "Requires activity '42' completed"},
		{"completion not expected", `{"type":"completion","cm":42,"e":0}`, KindCompletion, "Requires activity '42' not completed"},
		{"completion passed", `{"type":"completion","cm":42,"e":2}`, KindCompletion, "Requires activity '42' completed"},
		{"completion failed", `{"type":"completion","cm":42,"e":3}`, KindCompletion, "Requires activity '42' completed"},
		{"grade", `{"type":"grade","id":3,"min":60}`, KindGrade, "Minimum grade: 60%"},
		{"grade fractional", `{"type":"grade","id":3,"min":62.5,"max":100}`, KindGrade, "Minimum grade: 62.5%"},
		{"unknown type", `{"type":"xp", "level": 3}`, KindUnknown, `Unrecognized restriction: {"type":"xp","level":3}`},
		{"incomplete date", `{"type":"date","d":">="}`, KindUnknown, `Unrecognized restriction: {"type":"date","d":">="}`},
		{"incomplete group", `{"type":"group"}`, KindUnknown, `Unrecognized restriction: {"type":"group"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.groups[5] = "Team A"
			mgr := newTestManager(api)

			restrictions := mgr.FormatRestrictions(context.Background(), mustParse(t, `{"op":"&","c":[`+tt.raw+`]}`))
			require.Len(t, restrictions, 1)
			assert.Equal(t, tt.kind, restrictions[0].Kind)
			assert.Equal(t, tt.text, restrictions[0].Text)
			assert.NotEmpty(t, restrictions[0].Icon)
			assert.NotEmpty(t, restrictions[0].Class)
		})
	}
}

func TestManager_FormatRestrictions_empty(t *testing.T) {
	mgr := newTestManager(newFakeAPI())

	assert.Nil(t, mgr.FormatRestrictions(context.Background(), nil))
	assert.Nil(t, mgr.FormatRestrictions(context.Background(), mustParse(t, `{"op":"&","c":[],"showc":[]}`)))
}

func TestManager_FormatRestrictions_order(t *testing.T) {
	mgr := newTestManager(newFakeAPI())
	avail := mustParse(t, `{"op":"&","c":[
		{"type":"grade","id":1,"min":50},
		{"type":"completion","cm":7,"e":0},
		{"type":"date","d":"<","t":0}
	]}`)

	restrictions := mgr.FormatRestrictions(context.Background(), avail)
	require.Len(t, restrictions, 3)
	assert.Equal(t, KindGrade, restrictions[0].Kind)
	assert.Equal(t, KindCompletion, restrictions[1].Kind)
	assert.Equal(t, KindDate, restrictions[2].Kind)

	// formatting is idempotent
	assert.Equal(t, restrictions, mgr.FormatRestrictions(context.Background(), avail))
}

func TestManager_FormatRestrictions_hideUnknown(t *testing.T) {
	mgr := NewManager(newFakeAPI(), &nopLogger{}, Options{Location: time.UTC, HideUnknownRestrictions: true})
	avail := mustParse(t, `{"op":"&","c":[{"type":"xp"},{"type":"grade","id":1,"min":50}]}`)

	restrictions := mgr.FormatRestrictions(context.Background(), avail)
	require.Len(t, restrictions, 1)
	assert.Equal(t, KindGrade, restrictions[0].Kind)
}

func TestManager_groupName(t *testing.T) {
	t.Run("cached", func(t *testing.T) {
		api := newFakeAPI()
		api.groups[5] = "Team A"
		mgr := newTestManager(api)
		avail := mustParse(t, `{"op":"&","c":[{"type":"group","id":5},{"type":"group","id":5}]}`)

		restrictions := mgr.FormatRestrictions(context.Background(), avail)
		restrictions = append(restrictions, mgr.FormatRestrictions(context.Background(), avail)...)
		require.Len(t, restrictions, 4)
		for _, r := range restrictions {
			assert.Equal(t, "Team A", r.Text)
		}
		assert.Equal(t, 1, api.calls["GroupName"])
	})

	t.Run("lookup failure", func(t *testing.T) {
		api := newFakeAPI()
		api.groupErr = errors.New("boom")
		mgr := newTestManager(api)
		avail := mustParse(t, `{"op":"&","c":[{"type":"group","id":9}]}`)

		restrictions := mgr.FormatRestrictions(context.Background(), avail)
		require.Len(t, restrictions, 1)
		assert.Equal(t, "Group #9", restrictions[0].Text)

		// failures are retried on the next lookup
		api.groupErr = nil
		api.groups[9] = "Evening"
		restrictions = mgr.FormatRestrictions(context.Background(), avail)
		assert.Equal(t, "Evening", restrictions[0].Text)
		assert.Equal(t, 2, api.calls["GroupName"])
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, "completion", KindCompletion.String())
	assert.Equal(t, "Required group", KindGroup.Label())
	assert.Equal(t, "Other", KindUnknown.Label())
	assert.Equal(t, KindGrade, kindOf("grade"))
	assert.Equal(t, KindUnknown, kindOf("unknown"))
	assert.Equal(t, KindUnknown, kindOf(""))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
