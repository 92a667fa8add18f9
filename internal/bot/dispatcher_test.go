package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/figurabot/figura/internal/assignment"
	"github.com/figurabot/figura/internal/db"
	"github.com/figurabot/figura/internal/persona"
	"github.com/figurabot/figura/internal/telegram"
)

type sentMessage struct {
	chatID int64
	text   string
	markup *telegram.InlineKeyboardMarkup
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, markup: markup})
	return f.err
}

type completionCall struct {
	system string
	user   string
}

type fakeCompleter struct {
	calls []completionCall
	reply string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userText string) string {
	f.calls = append(f.calls, completionCall{system: systemPrompt, user: userText})
	return f.reply
}

type fixture struct {
	dispatcher  *Dispatcher
	catalog     *persona.Catalog
	assignments *assignment.Store
	sender      *fakeSender
	completer   *fakeCompleter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	catalog := persona.NewCatalog(conn)
	require.NoError(t, catalog.Seed(context.Background()))
	require.NoError(t, catalog.Reload(context.Background()))

	sender := &fakeSender{}
	completer := &fakeCompleter{reply: "model says hi"}
	assignments := assignment.NewStore(conn)

	return &fixture{
		dispatcher:  New(catalog, assignments, completer, sender),
		catalog:     catalog,
		assignments: assignments,
		sender:      sender,
		completer:   completer,
	}
}

func messageJSON(chatID int64, text string) []byte {
	return fmt.Appendf(nil, `{"message": {"chat": {"id": %d}, "text": %q, "from": {"id": 7}}}`, chatID, text)
}

func callbackJSON(chatID int64, data string) []byte {
	return fmt.Appendf(nil, `{"callback_query": {"data": %q, "message": {"chat": {"id": %d}}}}`, data, chatID)
}

func TestSelectionCallbackStoresAndConfirms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleUpdate(ctx, callbackJSON(42, "set:aristotle"))

	pid, ok, err := f.assignments.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "aristotle", pid)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, int64(42), f.sender.sent[0].chatID)
	assert.Contains(t, f.sender.sent[0].text, "Аристотель")
}

func TestUnknownSelectionSilentlyDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleUpdate(ctx, callbackJSON(42, "set:nobody"))

	_, ok, err := f.assignments.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok, "unknown selection must not mutate the store")
	assert.Empty(t, f.sender.sent, "unknown selection must not produce output")
}

func TestNonSelectionCallbackIgnored(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), callbackJSON(42, "noop:whatever"))

	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.completer.calls)
}

func TestStartCommandSendsMenu(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), messageJSON(42, "/start"))

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "Выбери личность:", msg.text)
	require.NotNil(t, msg.markup)
	require.Len(t, msg.markup.InlineKeyboard, 3)

	var actions, titles []string
	for _, row := range msg.markup.InlineKeyboard {
		require.Len(t, row, 1, "one button per row")
		actions = append(actions, row[0].CallbackData)
		titles = append(titles, row[0].Text)
	}
	assert.Equal(t, []string{"set:einstein", "set:aristotle", "set:temur"}, actions)
	assert.Equal(t, []string{"Альберт Эйнштейн", "Аристотель", "Амир Темур"}, titles)
}

func TestSwitchCommandSendsMenu(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), messageJSON(42, "/switch"))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Выбор личности:", f.sender.sent[0].text)
	require.NotNil(t, f.sender.sent[0].markup)
	assert.Len(t, f.sender.sent[0].markup.InlineKeyboard, 3)
}

func TestListCommand(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), messageJSON(42, "/listpersonas"))

	require.Len(t, f.sender.sent, 1)
	text := f.sender.sent[0].text
	assert.Contains(t, text, "<b>einstein</b> — Альберт Эйнштейн")
	assert.Contains(t, text, "<b>aristotle</b> — Аристотель")
	assert.Contains(t, text, "<b>temur</b> — Амир Темур")
}

func TestListCommandEmptyCatalog(t *testing.T) {
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	sender := &fakeSender{}
	d := New(persona.NewCatalog(conn), assignment.NewStore(conn), &fakeCompleter{}, sender)

	d.HandleUpdate(context.Background(), messageJSON(42, "/listpersonas"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Нет персон.", sender.sent[0].text)
}

func TestPlainMessageWithoutAssignment(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), messageJSON(42, "Hello"))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "Личность не выбрана. Нажми /switch.", f.sender.sent[0].text)
	assert.Empty(t, f.completer.calls, "no model call without an assignment")
}

func TestPlainMessageWithAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.assignments.Set(ctx, 42, "aristotle"))

	f.dispatcher.HandleUpdate(ctx, messageJSON(42, "Hello"))

	aristotle, _ := f.catalog.Get("aristotle")
	require.Len(t, f.completer.calls, 1)
	assert.Equal(t, aristotle.System, f.completer.calls[0].system)
	assert.Equal(t, "Hello", f.completer.calls[0].user)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "model says hi", f.sender.sent[0].text)
}

func TestDiagnosticReplyDeliveredVerbatim(t *testing.T) {
	f := newFixture(t)
	f.completer.reply = "OpenAI error: quota exceeded"
	ctx := context.Background()
	require.NoError(t, f.assignments.Set(ctx, 42, "einstein"))

	f.dispatcher.HandleUpdate(ctx, messageJSON(42, "Hello"))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "OpenAI error: quota exceeded", f.sender.sent[0].text)
}

func TestUnknownUpdateShapeIgnored(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleUpdate(context.Background(), []byte(`{"channel_post": {"chat": {"id": 1}}}`))
	f.dispatcher.HandleUpdate(context.Background(), []byte(`not json at all`))

	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.completer.calls)
}

// Scenario: menu, selection, then one conversational turn.
func TestSelectionFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleUpdate(ctx, messageJSON(42, "/start"))
	require.Len(t, f.sender.sent, 1)
	require.NotNil(t, f.sender.sent[0].markup)
	require.Len(t, f.sender.sent[0].markup.InlineKeyboard, 3)

	f.dispatcher.HandleUpdate(ctx, callbackJSON(42, "set:aristotle"))
	pid, ok, err := f.assignments.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "aristotle", pid)
	require.Len(t, f.sender.sent, 2)
	assert.Contains(t, f.sender.sent[1].text, "Аристотель")

	f.dispatcher.HandleUpdate(ctx, messageJSON(42, "Hello"))
	aristotle, _ := f.catalog.Get("aristotle")
	require.Len(t, f.completer.calls, 1)
	assert.Equal(t, aristotle.System, f.completer.calls[0].system)
	assert.Equal(t, "Hello", f.completer.calls[0].user)
}
