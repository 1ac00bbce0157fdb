package models

import (
	"encoding/base64"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one element of a message's content.
type Part struct {
	Type  PartType `json:"type"`
	Text  string   `json:"text,omitempty"`
	Image *Image   `json:"image,omitempty"`
}

// DataURL renders an image part as an inline data URL.
func (p Part) DataURL() string {
	if p.Image == nil {
		return ""
	}
	return "data:" + p.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Image.Data)
}

type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"content"`
}

// Text concatenates the text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// MessageSet is the system instruction followed by the user message.
type MessageSet []Message

func (s MessageSet) System() (Message, bool) {
	for _, m := range s {
		if m.Role == RoleSystem {
			return m, true
		}
	}
	return Message{}, false
}

func (s MessageSet) User() (Message, bool) {
	for _, m := range s {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}
