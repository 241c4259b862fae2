package domain

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// timeLayout is the fixed display format carried next to the machine
// timestamp so clients render one authoritative clock.
const (
	timeLayout       = "15:04:05"
	systemTimeLayout = "15:04"
)

// Message is the canonical chat record produced for every accepted
// chatMessage event. Immutable once created; never stored after broadcast.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemMessage narrates joins, leaves and errors. Unlike user messages the
// text is trimmed but never clamped.
type SystemMessage struct {
	Text      string    `json:"text"`
	Kind      string    `json:"type"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	IsSystem  bool      `json:"isSystem"`
}

// FormatMessage validates and normalizes a (username, text) pair into a
// Message. Username is clamped to MaxUsernameLen runes, text to MaxTextLen
// runes, both after trimming. Inputs that are empty after trimming fail with
// ErrUsernameEmpty / ErrTextEmpty.
//
// The id is a ULID: millisecond timestamp plus random suffix. Unique with
// overwhelming probability within one process; collisions are not corrected.
// Safe for concurrent callers, no shared state beyond clock and entropy.
func FormatMessage(username, text string) (Message, error) {
	name, err := SanitizeName(username)
	if err != nil {
		return Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrTextEmpty
	}

	now := time.Now()
	return Message{
		ID:        ulid.Make().String(),
		Username:  name,
		Text:      clampRunes(text, MaxTextLen),
		Time:      now.Format(timeLayout),
		Timestamp: now,
	}, nil
}

// FormatSystemMessage builds a system record tagged with kind
// ("info", "warning", "error").
func FormatSystemMessage(text, kind string) (SystemMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SystemMessage{}, ErrTextEmpty
	}
	if kind == "" {
		kind = "info"
	}

	now := time.Now()
	return SystemMessage{
		Text:      text,
		Kind:      kind,
		Time:      now.Format(systemTimeLayout),
		Timestamp: now,
		IsSystem:  true,
	}, nil
}
