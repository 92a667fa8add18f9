package telegram

import "encoding/json"

// Inbound webhook payload shapes (subset of the Bot API Update object).

// Update is one inbound webhook delivery.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      *Chat  `json:"chat,omitempty"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

// User is the sender of a message or callback.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// CallbackQuery is an inline-keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Event is the validated, tagged form of an inbound update. Exactly one of
// CallbackEvent, MessageEvent or UnknownEvent comes out of ParseUpdate;
// anything that doesn't match a known shape is UnknownEvent and gets
// silently ignored downstream.
type Event interface {
	isEvent()
}

// CallbackEvent is an inline-keyboard button press with its raw data.
type CallbackEvent struct {
	ChatID int64
	UserID int64
	Data   string
}

// MessageEvent is a plain chat message or command.
type MessageEvent struct {
	ChatID int64
	UserID int64
	Text   string
}

// UnknownEvent is any payload that doesn't match a handled shape.
type UnknownEvent struct{}

func (CallbackEvent) isEvent() {}
func (MessageEvent) isEvent()  {}
func (UnknownEvent) isEvent()  {}

// ParseUpdate validates a raw webhook body into a tagged event. Malformed
// JSON and shapes missing the fields the dispatcher needs (notably the
// chat id) all collapse into UnknownEvent.
func ParseUpdate(raw []byte) Event {
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return UnknownEvent{}
	}

	if cb := u.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || cb.Data == "" {
			return UnknownEvent{}
		}
		ev := CallbackEvent{ChatID: cb.Message.Chat.ID, Data: cb.Data}
		if cb.From != nil {
			ev.UserID = cb.From.ID
		}
		return ev
	}

	if msg := u.Message; msg != nil {
		if msg.Chat == nil {
			return UnknownEvent{}
		}
		ev := MessageEvent{ChatID: msg.Chat.ID, Text: msg.Text}
		if msg.From != nil {
			ev.UserID = msg.From.ID
		}
		return ev
	}

	return UnknownEvent{}
}
