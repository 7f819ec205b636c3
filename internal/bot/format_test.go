package bot

import (
	"errors"
	"testing"
	"time"

	"calbot/internal/calendar"
	"calbot/internal/extract"
	"calbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt;", escapeHTML("a & b <c>"))
	assert.Equal(t, "רגיל", escapeHTML("רגיל"))
}

func TestConfirmationFields(t *testing.T) {
	d := models.EventDescriptor{
		Title:       "פגישה <חשובה>",
		Date:        "2025-06-11",
		StartTime:   "15:00",
		EndTime:     "16:00",
		Location:    "תל אביב",
		Description: "סטטוס",
	}
	remote := &models.RemoteEvent{ID: "e", HTMLLink: "https://cal/link"}

	msg := confirmation(d, remote, "רביעי", false)
	assert.Contains(t, msg, "פגישה &lt;חשובה&gt;")
	assert.Contains(t, msg, "יום רביעי, 11/6")
	assert.Contains(t, msg, "15:00 - 16:00")
	assert.Contains(t, msg, "תל אביב")
	assert.Contains(t, msg, "סטטוס")
	assert.Contains(t, msg, "https://cal/link")
	assert.NotContains(t, msg, "📸")
}

func TestConfirmationOmitsAbsentFields(t *testing.T) {
	d := models.EventDescriptor{Title: "פגישה", Date: "2025-06-11", StartTime: "15:00", EndTime: "16:00"}

	msg := confirmation(d, &models.RemoteEvent{ID: "e"}, "רביעי", true)
	assert.NotContains(t, msg, "📍")
	assert.NotContains(t, msg, "📝")
	assert.NotContains(t, msg, "🔗")
	assert.Contains(t, msg, "📸", "image provenance marker shown")
}

func TestDayMonth(t *testing.T) {
	assert.Equal(t, "11/6", dayMonth("2025-06-11"))
	assert.Equal(t, "1/12", dayMonth("2025-12-01"))
	assert.Equal(t, "garbage", dayMonth("garbage"))
}

func TestAgendaEmpty(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	msg := agenda("היום", nil, loc)
	assert.Contains(t, msg, "אין אירועים")
}

func TestUserErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unparseable", extract.ErrUnparseable, "לא הצלחתי להבין"},
		{"no response", extract.ErrNoResponse, "לא התקבלה תשובה"},
		{"provider", &calendar.ProviderError{Status: 403, Body: "denied"}, "403"},
		{"generic", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, userError(tt.err), tt.want)
		})
	}
}

func TestEventICS(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	d := models.EventDescriptor{
		Title:     "פגישה",
		Date:      "2025-06-11",
		StartTime: "15:00",
		EndTime:   "16:00",
		Location:  "תל אביב",
	}

	data, err := eventICS(d, loc)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "BEGIN:VCALENDAR")
	assert.Contains(t, s, "BEGIN:VEVENT")
	assert.Contains(t, s, "SUMMARY:פגישה")
	assert.Contains(t, s, "LOCATION:תל אביב")
}

func TestEventICSInvalidTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	_, err = eventICS(models.EventDescriptor{Title: "x", Date: "not-a-date", StartTime: "15:00", EndTime: "16:00"}, loc)
	assert.Error(t, err)
}
