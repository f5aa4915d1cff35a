// Package model defines the core data structures for the smspice application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawMessage is a message as delivered by a message store: the date is an
// epoch-millisecond numeric string.
type RawMessage struct {
	Address string `json:"address" xml:"address,attr"`
	Body    string `json:"body" xml:"body,attr"`
	Date    string `json:"date" xml:"date,attr"`
}

// Message is the classification input. It is owned by the caller and never
// mutated by the engine.
type Message struct {
	Timestamp time.Time
	Sender    string
	Body      string
}

// Message converts the raw record. An unparseable date leaves Timestamp zero.
func (r RawMessage) Message() Message {
	msg := Message{
		Sender: r.Address,
		Body:   r.Body,
	}
	if ts, ok := ParseEpochMillis(r.Date); ok {
		msg.Timestamp = ts
	}
	return msg
}

// Hash identifies a raw message for deduplication.
func (r RawMessage) Hash() string {
	data := fmt.Sprintf("%s|%s|%s", r.Date, r.Address, r.Body)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

// HasTimestamp reports whether the message carries a usable timestamp.
func (m Message) HasTimestamp() bool {
	return !m.Timestamp.IsZero()
}

// ParseEpochMillis parses an epoch-millisecond numeric string.
func ParseEpochMillis(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
