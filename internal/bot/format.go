package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"calbot/internal/auth"
	"calbot/internal/calendar"
	"calbot/internal/extract"
	"calbot/internal/models"
)

const usageMessage = "🤖 <b>בוט יומן Google</b>\n\n" +
	"📝 <b>להוספת אירוע:</b>\n" +
	"• כתבו בשפה חופשית\n" +
	"• שלחו הודעה קולית\n" +
	"• שלחו תמונה (הזמנה, פלאייר, צילום מסך)\n\n" +
	"📅 <b>לצפייה ביומן:</b> /today או /week\n\n" +
	"לדוגמה: \"פגישה עם דני מחר ב-14:00\""

// escapeHTML neutralizes user- and model-supplied text before it is
// embedded in an HTML-formatted reply.
func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// confirmation renders the reply for one synchronized event: title, weekday
// and day/month, start-end time, location and description when present, and
// the provider deep link when one came back.
func confirmation(d models.EventDescriptor, remote *models.RemoteEvent, weekday string, fromImage bool) string {
	marker := ""
	if fromImage {
		marker = " 📸"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ <b>אירוע נוסף ליומן!</b>\n\n📌 <b>%s</b>%s", escapeHTML(d.Title), marker)
	fmt.Fprintf(&b, "\n🗓 יום %s, %s", weekday, dayMonth(d.Date))
	fmt.Fprintf(&b, "\n🕐 %s - %s", d.StartTime, d.EndTime)
	if d.Location != "" {
		fmt.Fprintf(&b, "\n📍 %s", escapeHTML(d.Location))
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n📝 %s", escapeHTML(d.Description))
	}
	if remote.HTMLLink != "" {
		fmt.Fprintf(&b, "\n\n🔗 <a href=\"%s\">פתח ביומן</a>", remote.HTMLLink)
	}
	return b.String()
}

// agenda renders a time-ordered event listing for the agenda commands.
func agenda(title string, events []*models.RemoteEvent, loc *time.Location) string {
	if len(events) == 0 {
		return fmt.Sprintf("📅 <b>%s</b>\n\nאין אירועים 🎉", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>%s</b>\n", title)
	for _, ev := range events {
		b.WriteString("\n")
		if t, err := time.Parse(time.RFC3339, ev.Start); err == nil {
			local := t.In(loc)
			fmt.Fprintf(&b, "🕐 %s %s — ", dayMonth(local.Format("2006-01-02")), local.Format("15:04"))
		}
		b.WriteString(escapeHTML(ev.Title))
		if ev.Location != "" {
			fmt.Fprintf(&b, " (%s)", escapeHTML(ev.Location))
		}
	}
	return b.String()
}

// dayMonth renders a YYYY-MM-DD date as D/M.
func dayMonth(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
}

// userError maps the failure taxonomy onto the Hebrew message shown in
// chat. Transcription failures are distinguished from extraction failures
// so the user knows which step broke.
func userError(err error) string {
	var provErr *calendar.ProviderError
	switch {
	case errors.Is(err, extract.ErrUnparseable):
		return "❌ לא הצלחתי להבין את פרטי האירוע. נסו לנסח מחדש עם תאריך ושעה."
	case errors.Is(err, extract.ErrNoResponse):
		return "❌ לא התקבלה תשובה מהמודל. נסו שוב בעוד רגע."
	case errors.As(err, &provErr):
		return fmt.Sprintf("❌ שגיאה מול Google Calendar (%d): %s", provErr.Status, escapeHTML(provErr.Body))
	default:
		return fmt.Sprintf("❌ שגיאה: %s", escapeHTML(err.Error()))
	}
}

// authPrompt is the re-authorization reply shown whenever no valid
// credential is obtainable.
func authPrompt(url string) string {
	return fmt.Sprintf("🔐 צריך לחבר את חשבון Google שלך קודם.\n\n<a href=\"%s\">לחץ כאן לחיבור</a>", url)
}

// reauthNeeded reports whether err should be answered with the
// authorization link rather than an error message.
func reauthNeeded(err error) bool {
	return errors.Is(err, auth.ErrNotAuthenticated)
}
