package models

import "time"

// Message is a directed message row. ReadAt is nil until the recipient marks
// the message read; after that it never changes.
//
// The JSON tags match the external contract for POST /messages, which echoes
// back the stored row without a read_at field (a freshly created message is
// always unread).
type Message struct {
	ID           int64      `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
}

// MessageDetail is a message joined with the full profiles of its sender and
// recipient. read_at serializes as null while the message is unread.
type MessageDetail struct {
	ID       int64      `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser Profile    `json:"from_user"`
	ToUser   Profile    `json:"to_user"`
}

// SentMessage is one entry of a user's outbox: the message plus the
// recipient's profile.
type SentMessage struct {
	ID     int64      `json:"id"`
	ToUser Profile    `json:"to_user"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sent_at"`
	ReadAt *time.Time `json:"read_at"`
}

// ReceivedMessage is one entry of a user's inbox: the message plus the
// sender's profile.
type ReceivedMessage struct {
	ID       int64      `json:"id"`
	FromUser Profile    `json:"from_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}

// ReadReceipt reports when a message was marked read.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
