package domain

import (
	"strings"
	"time"
)

// MessageRole identifies who produced a transcript entry
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageType tags how a transcript entry is rendered
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
)

// Message is a renderable transcript entry. Text entries carry the answer
// sentences in Text; image and video entries carry exactly one media item
// and use Caption for display text. Citations are carried only on entries
// that originated from one upstream response so the renderer can resolve
// markers against the right media IDs.
type Message struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Role           MessageRole     `json:"role"`
	Type           MessageType     `json:"type"`
	Text           []string        `json:"text,omitempty"`
	Caption        string          `json:"caption,omitempty"`
	Image          *ImageItem      `json:"image,omitempty"`
	Video          *VideoItem      `json:"video,omitempty"`
	Citations      []Citation      `json:"citations,omitempty"`
	MediaCitations []MediaCitation `json:"media_citations,omitempty"`
	IsCopied       bool            `json:"is_copied"`
	IsLiked        bool            `json:"is_liked"`
	IsBookmarked   bool            `json:"is_bookmarked"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PlainText flattens the message content for clipboard copy
func (m *Message) PlainText() string {
	switch m.Type {
	case MessageTypeText:
		return strings.Join(m.Text, "\n")
	default:
		return m.Caption
	}
}

// Session is one widget conversation. UpstreamToken is the last session_id
// returned by the inference service, replayed on the next turn.
type Session struct {
	ID            string    `json:"id"`
	UpstreamToken string    `json:"upstream_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
