// Package bot classifies inbound Telegram events and routes each one to
// its effect: a persona selection, a menu, a listing, or a model
// completion. The dispatcher holds no per-event state; every event
// re-reads current assignments so the store stays the single source of
// truth.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/figurabot/figura/internal/assignment"
	"github.com/figurabot/figura/internal/gateway"
	"github.com/figurabot/figura/internal/logging"
	"github.com/figurabot/figura/internal/persona"
	"github.com/figurabot/figura/internal/telegram"
)

// Recognized command prefixes.
const (
	cmdStart  = "/start"
	cmdSwitch = "/switch"
	cmdList   = "/listpersonas"
)

// selectPrefix tags callback data carrying a persona selection.
const selectPrefix = "set:"

// Sender delivers one outbound message to a chat. Delivery is best-effort;
// the dispatcher logs failures and moves on.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
}

// Dispatcher routes one inbound event at a time.
type Dispatcher struct {
	catalog     *persona.Catalog
	assignments *assignment.Store
	gateway     gateway.Completer
	sender      Sender
}

// New creates a dispatcher over the given collaborators.
func New(catalog *persona.Catalog, assignments *assignment.Store, gw gateway.Completer, sender Sender) *Dispatcher {
	return &Dispatcher{
		catalog:     catalog,
		assignments: assignments,
		gateway:     gw,
		sender:      sender,
	}
}

// HandleUpdate parses a raw webhook body and dispatches the result.
// Intended to run on a queue worker, off the webhook accept path.
func (d *Dispatcher) HandleUpdate(ctx context.Context, raw []byte) {
	d.Dispatch(ctx, telegram.ParseUpdate(raw))
}

// Dispatch runs one event to completion. Every branch ends in zero or one
// outbound message.
func (d *Dispatcher) Dispatch(ctx context.Context, ev telegram.Event) {
	switch e := ev.(type) {
	case telegram.CallbackEvent:
		d.handleCallback(ctx, e)
	case telegram.MessageEvent:
		d.handleMessage(ctx, e)
	default:
		// Unknown shapes are dropped without a user-visible trace.
		logging.Debugf("[Bot] ignoring unknown update shape")
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, ev telegram.CallbackEvent) {
	if !strings.HasPrefix(ev.Data, selectPrefix) {
		return
	}
	pid := strings.TrimPrefix(ev.Data, selectPrefix)
	p, ok := d.catalog.Get(pid)
	if !ok {
		// Unknown selection ids are dropped, not errored.
		logging.Debugf("[Bot] ignoring selection of unknown persona %q", pid)
		return
	}
	if err := d.assignments.Set(ctx, ev.ChatID, pid); err != nil {
		logging.Errorf("[Bot] failed to store selection for chat %d: %v", ev.ChatID, err)
		return
	}
	d.send(ctx, ev.ChatID, fmt.Sprintf("Выбран: <b>%s</b>", p.Title), nil)
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev telegram.MessageEvent) {
	switch {
	case ev.Text == cmdStart:
		d.send(ctx, ev.ChatID, "Выбери личность:", d.keyboard())
	case ev.Text == cmdSwitch:
		d.send(ctx, ev.ChatID, "Выбор личности:", d.keyboard())
	case strings.HasPrefix(ev.Text, cmdList):
		d.send(ctx, ev.ChatID, d.listing(), nil)
	default:
		d.handleChat(ctx, ev)
	}
}

// handleChat is the conversational default: resolve the chat's persona and
// run one completion turn.
func (d *Dispatcher) handleChat(ctx context.Context, ev telegram.MessageEvent) {
	pid, ok, err := d.assignments.Get(ctx, ev.ChatID)
	if err != nil {
		logging.Errorf("[Bot] failed to resolve assignment for chat %d: %v", ev.ChatID, err)
		return
	}
	if !ok {
		d.send(ctx, ev.ChatID, "Личность не выбрана. Нажми /switch.", nil)
		return
	}
	p, ok := d.catalog.Get(pid)
	if !ok {
		// Stale binding to a persona no longer in the catalog.
		d.send(ctx, ev.ChatID, "Личность не выбрана. Нажми /switch.", nil)
		return
	}

	reply := d.gateway.Complete(ctx, p.System, ev.Text)
	d.send(ctx, ev.ChatID, reply, nil)
}

// keyboard builds the persona selection menu: one button per persona,
// labeled by title, in catalog order.
func (d *Dispatcher) keyboard() *telegram.InlineKeyboardMarkup {
	personas := d.catalog.All()
	rows := make([][]telegram.InlineKeyboardButton, 0, len(personas))
	for _, p := range personas {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: p.Title, CallbackData: selectPrefix + p.ID},
		})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// listing renders the plain persona enumeration for /listpersonas.
func (d *Dispatcher) listing() string {
	personas := d.catalog.All()
	if len(personas) == 0 {
		return "Нет персон."
	}
	lines := make([]string, 0, len(personas))
	for _, p := range personas {
		lines = append(lines, fmt.Sprintf("<b>%s</b> — %s", p.ID, p.Title))
	}
	return strings.Join(lines, "\n")
}

// send delivers one message, logging and dropping transport failures.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if err := d.sender.SendMessage(ctx, chatID, text, markup); err != nil {
		logging.Warnf("[Bot] failed to send message to chat %d: %v", chatID, err)
	}
}
