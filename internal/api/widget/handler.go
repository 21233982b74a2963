package widget

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hakalabs/hakabot/internal/domain"
	"github.com/hakalabs/hakabot/internal/render"
	"github.com/hakalabs/hakabot/internal/service"
)

// Relayer forwards a raw chat request to the inference service
type Relayer interface {
	Relay(ctx context.Context, body []byte) ([]byte, error)
	Payload(kind domain.FailureKind) domain.ErrorPayload
}

// Handler handles widget API requests
type Handler struct {
	relayer       Relayer
	chatService   *service.ChatService
	widgetService *service.WidgetService
}

// NewHandler creates a new widget handler
func NewHandler(relayer Relayer, chatService *service.ChatService, widgetService *service.WidgetService) *Handler {
	return &Handler{
		relayer:       relayer,
		chatService:   chatService,
		widgetService: widgetService,
	}
}

// RegisterRoutes registers widget routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/config", h.GetConfig)
	r.POST("/chat", h.Chat)
	r.GET("/session/:session_id/messages", h.GetMessages)
	r.GET("/messages/:session_id/:message_id/rendered", h.Rendered)
	r.POST("/messages/:session_id/:message_id/copy", h.Copy)
	r.POST("/messages/:session_id/:message_id/like", h.Like)
	r.POST("/messages/:session_id/:message_id/bookmark", h.Bookmark)
}

// GetConfig returns the widget bootstrap configuration
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.widgetService.Bootstrap())
}

// Proxy relays a raw chat request body to the inference service and returns
// the upstream JSON untouched on success. Failures map to the fixed error
// payload and status for their kind; nothing escapes as a bare error.
func (h *Handler) Proxy(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		payload := h.relayer.Payload(domain.KindSystem)
		c.JSON(domain.KindSystem.Status(), payload)
		return
	}

	data, err := h.relayer.Relay(c.Request.Context(), body)
	if err != nil {
		kind := domain.KindSystem
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			kind = ue.Kind
		}
		c.JSON(kind.Status(), h.relayer.Payload(kind))
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// ChatSubmission is the widget's question request
type ChatSubmission struct {
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question" binding:"required"`
}

// ChatResult carries the messages one accepted turn appended
type ChatResult struct {
	SessionID string            `json:"session_id"`
	Messages  []*domain.Message `json:"messages"`
}

// Chat handles one question through the session controller. A duplicate
// submission while a request is in flight returns an empty message list.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, messages, err := h.chatService.Submit(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}

	c.JSON(http.StatusOK, ChatResult{SessionID: sessionID, Messages: messages})
}

// GetMessages returns the full transcript for a session. Reading an
// unknown session is a 404, not a way to mint one.
func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.chatService.Messages(c.Param("session_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// RenderedMessage is a message prepared for display: answer sentences with
// their citation markers, or a media caption with its markers
type RenderedMessage struct {
	ID        string             `json:"id"`
	Type      domain.MessageType `json:"type"`
	Sentences []render.Sentence  `json:"sentences,omitempty"`
	Caption   string             `json:"caption,omitempty"`
	Markers   []render.Marker    `json:"markers,omitempty"`
}

// Rendered returns the display form of one message
func (h *Handler) Rendered(c *gin.Context) {
	msg, ok := h.chatService.Message(c.Param("session_id"), c.Param("message_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	out := RenderedMessage{ID: msg.ID, Type: msg.Type}
	switch msg.Type {
	case domain.MessageTypeText:
		out.Sentences = render.Sentences(msg.Text, msg.Citations)
	case domain.MessageTypeImage:
		out.Caption = msg.Caption
		if msg.Image != nil {
			out.Markers = render.MediaMarkers(msg.Image.ID, msg.Citations, msg.MediaCitations)
		}
	case domain.MessageTypeVideo:
		out.Caption = msg.Caption
		if msg.Video != nil {
			out.Markers = render.MediaMarkers(msg.Video.ID, msg.Citations, msg.MediaCitations)
		}
	}

	c.JSON(http.StatusOK, out)
}

// Copy flags a message as copied and returns its clipboard text
func (h *Handler) Copy(c *gin.Context) {
	text, ok := h.chatService.Copy(c.Param("session_id"), c.Param("message_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// Like flips the liked flag on a message
func (h *Handler) Like(c *gin.Context) {
	h.toggle(c, h.chatService.Like)
}

// Bookmark flips the bookmarked flag on a message
func (h *Handler) Bookmark(c *gin.Context) {
	h.toggle(c, h.chatService.Bookmark)
}

func (h *Handler) toggle(c *gin.Context, flip func(sessionID, messageID string) (*domain.Message, bool)) {
	msg, ok := flip(c.Param("session_id"), c.Param("message_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}
