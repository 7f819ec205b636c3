package extract

import (
	"testing"

	"calbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		title   string
		wantErr bool
	}{
		{
			name:  "bare object",
			reply: `{"title":"פגישה עם דנה","date":"2025-06-11","start_time":"15:00","end_time":"16:00"}`,
			want:  1, title: "פגישה עם דנה",
		},
		{
			name:  "object wrapped in prose",
			reply: "Here you go:\n{\"title\":\"ישיבת צוות\",\"date\":\"2025-06-12\",\"start_time\":\"09:00\",\"end_time\":\"10:00\"}\nHope that helps!",
			want:  1, title: "ישיבת צוות",
		},
		{
			name:  "markdown fenced object",
			reply: "```json\n{\"title\":\"רופא שיניים\",\"date\":\"2025-06-13\",\"start_time\":\"08:30\",\"end_time\":\"09:30\"}\n```",
			want:  1, title: "רופא שיניים",
		},
		{
			name: "array of two events",
			reply: `[{"title":"א","date":"2025-06-11","start_time":"10:00","end_time":"11:00"},
					{"title":"ב","date":"2025-06-12","start_time":"12:00","end_time":"13:00"}]`,
			want: 2, title: "א",
		},
		{
			name:  "empty array falls through to object",
			reply: `[] {"title":"ג","date":"2025-06-11","start_time":"10:00","end_time":"11:00"}`,
			want:  1, title: "ג",
		},
		{
			name:  "malformed array salvaged object by object",
			reply: `[{"title":"ד","date":"2025-06-11","start_time":"10:00","end_time":"11:00"},{"title":"ה","date":"2025-06-12","start_time":"12:00","end_time":"13:00"},`,
			want:  2, title: "ד",
		},
		{
			name:  "first span invalid, later span salvaged",
			reply: `{"title": broken,} {"title":"ו","date":"2025-06-11","start_time":"10:00","end_time":"11:00"}`,
			want:  1, title: "ו",
		},
		{
			name:  "braces inside string values",
			reply: `{"title":"סוגריים {כן}","date":"2025-06-11","start_time":"10:00","end_time":"11:00"}`,
			want:  1, title: "סוגריים {כן}",
		},
		{
			name:    "no json at all",
			reply:   "מצטער, לא הצלחתי להבין את ההודעה.",
			wantErr: true,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDescriptors(tt.reply)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnparseable)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			assert.Equal(t, tt.title, got[0].Title)
		})
	}
}

func TestNormalizeAllDefaults(t *testing.T) {
	in := []models.EventDescriptor{{
		Title:     "פגישה עם דנה",
		Date:      "2025-06-11",
		StartTime: "15:00",
	}}

	out, err := normalizeAll(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2025-06-11", out[0].EndDate, "end date defaults to date")
	assert.Equal(t, "16:00", out[0].EndTime, "end time defaults to start + 1h")
}

func TestNormalizeAllKeepsExplicitEndTime(t *testing.T) {
	in := []models.EventDescriptor{{
		Title:     "הרצאה",
		Date:      "2025-06-11",
		StartTime: "15:00",
		EndTime:   "17:30",
	}}

	out, err := normalizeAll(in)
	require.NoError(t, err)
	assert.Equal(t, "17:30", out[0].EndTime, "explicit end time survives unchanged")
}

func TestNormalizeAllDropsIncomplete(t *testing.T) {
	in := []models.EventDescriptor{
		{Title: "", Date: "2025-06-11", StartTime: "10:00"},
		{Title: "תקין", Date: "2025-06-11", StartTime: "10:00"},
		{Title: "בלי שעה", Date: "2025-06-11"},
	}

	out, err := normalizeAll(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "תקין", out[0].Title)
}

func TestNormalizeAllEmptyAfterFilter(t *testing.T) {
	_, err := normalizeAll([]models.EventDescriptor{{Title: "בלי תאריך"}})
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestPlusOneHour(t *testing.T) {
	tests := []struct {
		start, want string
	}{
		{"15:00", "16:00"},
		{"09:30", "10:30"},
		{"23:30", "23:59"}, // no rollover into a day the user never mentioned
		{"not-a-time", "not-a-time"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, plusOneHour(tt.start), "start %s", tt.start)
	}
}
