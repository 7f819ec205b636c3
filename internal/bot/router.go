// Package bot classifies inbound chat units (text, voice, photo, UI
// callback) and sequences the extraction and synchronization pipeline,
// producing confirmation or error replies. One unit per invocation; the
// only state shared across invocations is the stored credential.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calbot/internal/clock"
	"calbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// deleteActionPrefix is the opaque action-token convention embedded in the
// confirmation's inline button: "delete:<remote event id>".
const deleteActionPrefix = "delete:"

// Transport is the chat side of the router: replies, edits, callback acks,
// and file resolution.
type Transport interface {
	Send(chatID int64, text string)
	SendWithButton(chatID int64, text, buttonText, callbackData string)
	Edit(chatID int64, messageID int, text string)
	AnswerCallback(callbackID string)
	SendDocument(chatID int64, name string, data []byte)
	FileBytes(fileID string) ([]byte, error)
}

// Extractor turns raw input into event descriptors.
type Extractor interface {
	FromText(ctx context.Context, now clock.Context, text string) ([]models.EventDescriptor, error)
	FromImage(ctx context.Context, now clock.Context, image []byte, mimeType, caption string) (models.EventDescriptor, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Calendar performs the remote mutations.
type Calendar interface {
	Create(ctx context.Context, d models.EventDescriptor) (*models.RemoteEvent, error)
	Delete(ctx context.Context, eventID string) bool
	ListRange(ctx context.Context, from, to time.Time) ([]*models.RemoteEvent, error)
}

// Authorizer answers whether a valid credential exists and where to send
// the user to create one.
type Authorizer interface {
	Authenticated(ctx context.Context) bool
	AuthURL() string
}

// Router dispatches one inbound unit per invocation.
type Router struct {
	tg      Transport
	ai      Extractor
	cal     Calendar
	auth    Authorizer
	clock   *clock.Clock
	logger  *slog.Logger
	sendICS bool
}

// NewRouter wires the router's collaborators.
func NewRouter(logger *slog.Logger, tg Transport, ai Extractor, cal Calendar, authz Authorizer, clk *clock.Clock, sendICS bool) *Router {
	return &Router{tg: tg, ai: ai, cal: cal, auth: authz, clock: clk, logger: logger, sendICS: sendICS}
}

// unitKind tags the intake variant.
type unitKind int

const (
	unitNone unitKind = iota
	unitText
	unitVoice
	unitPhoto
	unitAction
)

// intakeUnit is one classified inbound unit.
type intakeUnit struct {
	kind       unitKind
	chatID     int64
	messageID  int    // message carrying the callback's keyboard
	callbackID string // callback to acknowledge
	text       string // message text, or opaque action data
	fileID     string // voice or photo reference
	caption    string // photo caption, context only
}

// classify maps a transport update onto an intake unit.
func classify(update tgbotapi.Update) intakeUnit {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil {
		return intakeUnit{
			kind:       unitAction,
			chatID:     cb.Message.Chat.ID,
			messageID:  cb.Message.MessageID,
			callbackID: cb.ID,
			text:       cb.Data,
		}
	}

	msg := update.Message
	if msg == nil {
		return intakeUnit{kind: unitNone}
	}

	switch {
	case msg.Voice != nil:
		return intakeUnit{kind: unitVoice, chatID: msg.Chat.ID, fileID: msg.Voice.FileID}
	case len(msg.Photo) > 0:
		// The transport delivers several resolutions; the last is the
		// largest.
		largest := msg.Photo[len(msg.Photo)-1]
		return intakeUnit{kind: unitPhoto, chatID: msg.Chat.ID, fileID: largest.FileID, caption: msg.Caption}
	case msg.Text != "":
		return intakeUnit{kind: unitText, chatID: msg.Chat.ID, text: strings.TrimSpace(msg.Text)}
	default:
		return intakeUnit{kind: unitNone}
	}
}

// HandleUpdate processes one inbound update end to end. Every path ends in
// a chat-readable reply; nothing escapes as an unhandled error because the
// transport expects an acknowledgment regardless of business outcome.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	u := classify(update)
	if u.kind == unitNone {
		return
	}

	if u.kind == unitAction {
		r.handleAction(ctx, u)
		return
	}

	if !r.auth.Authenticated(ctx) {
		r.tg.Send(u.chatID, authPrompt(r.auth.AuthURL()))
		return
	}

	switch u.kind {
	case unitVoice:
		r.handleVoice(ctx, u)
	case unitPhoto:
		r.handlePhoto(ctx, u)
	case unitText:
		r.handleText(ctx, u)
	}
}

// handleAction recognizes exactly one command family, delete-by-id. Any
// other action data is acknowledged as a no-op.
func (r *Router) handleAction(ctx context.Context, u intakeUnit) {
	defer r.tg.AnswerCallback(u.callbackID)

	if !strings.HasPrefix(u.text, deleteActionPrefix) {
		r.logger.Debug("Ignoring unrecognized action", "data", u.text)
		return
	}

	if !r.auth.Authenticated(ctx) {
		r.tg.Send(u.chatID, authPrompt(r.auth.AuthURL()))
		return
	}

	eventID := strings.TrimPrefix(u.text, deleteActionPrefix)
	if r.cal.Delete(ctx, eventID) {
		r.tg.Edit(u.chatID, u.messageID, "🗑 האירוע נמחק מהיומן")
	} else {
		r.tg.Edit(u.chatID, u.messageID, "❌ שגיאה במחיקה")
	}
}

// handleVoice transcribes the recording, surfaces the transcript so the
// user can catch mis-transcriptions, then re-enters the text flow.
func (r *Router) handleVoice(ctx context.Context, u intakeUnit) {
	r.tg.Send(u.chatID, "🎤 מעבד הודעה קולית...")

	audio, err := r.tg.FileBytes(u.fileID)
	if err != nil {
		r.logger.Error("Failed to fetch voice file", "error", err)
		r.tg.Send(u.chatID, "❌ לא הצלחתי להוריד את ההודעה הקולית")
		return
	}

	transcript, err := r.ai.Transcribe(ctx, audio, "audio/ogg")
	if err != nil {
		r.logger.Error("Transcription failed", "error", err)
		r.tg.Send(u.chatID, "❌ שגיאה בתמלול ההודעה הקולית")
		return
	}

	r.tg.Send(u.chatID, fmt.Sprintf("📝 תמלול: \"%s\"", escapeHTML(transcript)))
	r.addFromText(ctx, u.chatID, transcript)
}

// handlePhoto extracts exactly one descriptor from the image, marks its
// provenance, and synchronizes it.
func (r *Router) handlePhoto(ctx context.Context, u intakeUnit) {
	r.tg.Send(u.chatID, "📸 מעבד תמונה...")

	image, err := r.tg.FileBytes(u.fileID)
	if err != nil {
		r.logger.Error("Failed to fetch photo file", "error", err)
		r.tg.Send(u.chatID, "❌ לא הצלחתי להוריד את התמונה")
		return
	}

	d, err := r.ai.FromImage(ctx, r.clock.Now(), image, "image/jpeg", u.caption)
	if err != nil {
		r.reportError(u.chatID, err)
		return
	}

	if d.Description != "" {
		d.Description += "\n\n"
	}
	d.Description += "📸 נוצר מתמונה"

	r.syncAndConfirm(ctx, u.chatID, d, true)
}

// handleText routes commands and hands everything else to extraction.
func (r *Router) handleText(ctx context.Context, u intakeUnit) {
	switch {
	case u.text == "/start" || u.text == "/help":
		r.tg.Send(u.chatID, usageMessage)
	case u.text == "/today":
		r.sendAgenda(ctx, u.chatID, "היום", 1)
	case u.text == "/week":
		r.sendAgenda(ctx, u.chatID, "השבוע", 7)
	case strings.HasPrefix(u.text, "/"):
		// Unknown commands are not free-form input.
	default:
		r.tg.Send(u.chatID, "🔄 מעבד...")
		r.addFromText(ctx, u.chatID, u.text)
	}
}

// addFromText extracts one or more descriptors and synchronizes each, one
// confirmation per event.
func (r *Router) addFromText(ctx context.Context, chatID int64, text string) {
	descriptors, err := r.ai.FromText(ctx, r.clock.Now(), text)
	if err != nil {
		r.reportError(chatID, err)
		return
	}

	for _, d := range descriptors {
		r.syncAndConfirm(ctx, chatID, d, false)
	}
}

// syncAndConfirm creates the remote event and replies with a confirmation
// carrying its own delete action token.
func (r *Router) syncAndConfirm(ctx context.Context, chatID int64, d models.EventDescriptor, fromImage bool) {
	remote, err := r.cal.Create(ctx, d)
	if err != nil {
		r.reportError(chatID, err)
		return
	}

	weekday := ""
	if t, err := time.Parse("2006-01-02", d.Date); err == nil {
		weekday = r.clock.WeekdayName(t)
	}

	r.tg.SendWithButton(chatID,
		confirmation(d, remote, weekday, fromImage),
		"🗑 מחק אירוע",
		deleteActionPrefix+remote.ID,
	)

	if r.sendICS {
		if ics, err := eventICS(d, r.clock.Location()); err == nil {
			r.tg.SendDocument(chatID, "event.ics", ics)
		} else {
			r.logger.Warn("Could not build ics attachment", "error", err)
		}
	}
}

// sendAgenda lists the next `days` days of the calendar.
func (r *Router) sendAgenda(ctx context.Context, chatID int64, title string, days int) {
	loc := r.clock.Location()
	now := time.Now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, days)

	events, err := r.cal.ListRange(ctx, from, to)
	if err != nil {
		r.reportError(chatID, err)
		return
	}
	r.tg.Send(chatID, agenda(title, events, loc))
}

// reportError degrades any pipeline failure to a chat-readable message,
// showing the authorization link when the credential is the problem.
func (r *Router) reportError(chatID int64, err error) {
	if reauthNeeded(err) {
		r.tg.Send(chatID, authPrompt(r.auth.AuthURL()))
		return
	}
	r.logger.Error("Request failed", "error", err)
	r.tg.Send(chatID, userError(err))
}
