package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeDispatcher struct{ updates []tgbotapi.Update }

func (f *fakeDispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	f.updates = append(f.updates, update)
}

type fakeCreds struct {
	authed      bool
	exchanged   []string
	exchangeErr error
}

func (f *fakeCreds) Exchange(ctx context.Context, code string) error {
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.exchanged = append(f.exchanged, code)
	return nil
}
func (f *fakeCreds) Authenticated(ctx context.Context) bool { return f.authed }

type fakeNotifier struct{ sent []string }

func (f *fakeNotifier) Send(chatID int64, text string) { f.sent = append(f.sent, text) }

func newTestServer(dispatcher *fakeDispatcher, creds *fakeCreds, notifier *fakeNotifier) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	s := New(logger, dispatcher, creds, notifier, 7, "0")
	return httptest.NewServer(s.Handler())
}

func TestLiveness(t *testing.T) {
	srv := newTestServer(&fakeDispatcher{}, &fakeCreds{}, &fakeNotifier{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv := newTestServer(dispatcher, &fakeCreds{}, &fakeNotifier{})
	defer srv.Close()

	body := `{"update_id":1,"message":{"message_id":2,"chat":{"id":7},"text":"שלום"}}`
	res, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, dispatcher.updates, 1)
	assert.Equal(t, "שלום", dispatcher.updates[0].Message.Text)
}

func TestWebhookAcknowledgesGarbage(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	srv := newTestServer(dispatcher, &fakeCreds{}, &fakeNotifier{})
	defer srv.Close()

	res, err := http.Post(srv.URL+"/webhook", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer res.Body.Close()

	// The transport redelivers on non-200, so even garbage is acknowledged.
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, dispatcher.updates)
}

func TestOAuthCallbackExchangesAndNotifies(t *testing.T) {
	creds := &fakeCreds{}
	notifier := &fakeNotifier{}
	srv := newTestServer(&fakeDispatcher{}, creds, notifier)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/oauth/callback?code=auth-code-1")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"auth-code-1"}, creds.exchanged)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "מחובר בהצלחה")
}

func TestOAuthCallbackMissingCode(t *testing.T) {
	srv := newTestServer(&fakeDispatcher{}, &fakeCreds{}, &fakeNotifier{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/oauth/callback")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestOAuthCallbackExchangeFailure(t *testing.T) {
	creds := &fakeCreds{exchangeErr: errors.New("bad code")}
	notifier := &fakeNotifier{}
	srv := newTestServer(&fakeDispatcher{}, creds, notifier)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/oauth/callback?code=bad")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Empty(t, notifier.sent)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(&fakeDispatcher{}, &fakeCreds{authed: true}, &fakeNotifier{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]bool
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body["authenticated"])
}
