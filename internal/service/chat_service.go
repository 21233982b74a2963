package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hakalabs/hakabot/internal/config"
	"github.com/hakalabs/hakabot/internal/domain"
	"github.com/hakalabs/hakabot/internal/repository"
)

// AnswerClient is the inference service seam used by the chat service
type AnswerClient interface {
	Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error)
	Payload(kind domain.FailureKind) domain.ErrorPayload
}

// ChatService drives the conversation flow: it appends the user's question,
// calls the inference service once, and turns the answer (or the failure)
// into assistant transcript entries.
type ChatService struct {
	cfg      *config.Config
	sessions *SessionManager
	repo     *repository.SessionRepository
	client   AnswerClient
	logger   *zap.Logger

	copyResetDelay time.Duration
}

// NewChatService creates a new chat service
func NewChatService(
	cfg *config.Config,
	sessions *SessionManager,
	repo *repository.SessionRepository,
	client AnswerClient,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:            cfg,
		sessions:       sessions,
		repo:           repo,
		client:         client,
		logger:         logger,
		copyResetDelay: 2 * time.Second,
	}
}

// Submit handles one question. A blank question or a session with a request
// already in flight is silently dropped and returns no new messages. The
// returned slice holds the messages this turn appended, user message first;
// a failed inference call still yields one assistant message built from the
// error template, so the transcript is the only channel for outcomes.
func (s *ChatService) Submit(ctx context.Context, sessionID, question string) (string, []*domain.Message, error) {
	sess, err := s.sessions.GetOrCreate(sessionID)
	if err != nil {
		return "", nil, err
	}

	if strings.TrimSpace(question) == "" {
		return sess.ID, nil, nil
	}

	sess.mu.Lock()
	if sess.pending {
		sess.mu.Unlock()
		return sess.ID, nil, nil
	}
	sess.pending = true
	userMsg := &domain.Message{
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Type:      domain.MessageTypeText,
		Text:      []string{question},
		CreatedAt: time.Now(),
	}
	sess.messages = append(sess.messages, userMsg)
	token := sess.token
	sess.mu.Unlock()

	if err := s.repo.CreateMessage(userMsg); err != nil {
		s.logger.Warn("failed to persist user message", zap.Error(err))
	}

	req := s.buildRequest(token, question)
	resp, callErr := s.client.Chat(ctx, req)

	var appended []*domain.Message
	sess.mu.Lock()
	if callErr != nil {
		appended = []*domain.Message{s.errorMessage(sess.ID, callErr)}
	} else {
		// The upstream can omit the token; keep the one we have
		if resp.SessionID != "" {
			sess.token = resp.SessionID
		}
		appended = decompose(sess.ID, resp)
	}
	sess.messages = append(sess.messages, appended...)
	sess.pending = false
	sess.mu.Unlock()

	if callErr == nil && resp.SessionID != "" {
		if err := s.repo.SaveToken(sess.ID, resp.SessionID); err != nil {
			s.logger.Warn("failed to persist session token", zap.Error(err))
		}
	}
	for _, m := range appended {
		if err := s.repo.CreateMessage(m); err != nil {
			s.logger.Warn("failed to persist assistant message", zap.Error(err))
		}
	}

	return sess.ID, append([]*domain.Message{userMsg}, appended...), nil
}

// Messages returns the transcript for a session. Reading never creates a
// session; an unknown id yields domain.ErrNotFound.
func (s *ChatService) Messages(sessionID string) ([]*domain.Message, error) {
	sess, err := s.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Messages(), nil
}

// Message returns a snapshot of one transcript entry
func (s *ChatService) Message(sessionID, messageID string) (*domain.Message, bool) {
	sess, err := s.sessions.Load(sessionID)
	if err != nil {
		return nil, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	msg := sess.find(messageID)
	if msg == nil {
		return nil, false
	}
	snapshot := *msg
	return &snapshot, true
}

// Copy flags a message as copied, returns its flattened text for the
// clipboard, and schedules the flag reset. A repeat call reschedules the
// reset; last writer wins.
func (s *ChatService) Copy(sessionID, messageID string) (string, bool) {
	sess, err := s.sessions.Load(sessionID)
	if err != nil {
		return "", false
	}
	sess.mu.Lock()
	msg := sess.find(messageID)
	if msg == nil {
		sess.mu.Unlock()
		return "", false
	}
	msg.IsCopied = true
	text := msg.PlainText()
	sess.mu.Unlock()

	time.AfterFunc(s.copyResetDelay, func() {
		sess.mu.Lock()
		if m := sess.find(messageID); m != nil {
			m.IsCopied = false
		}
		sess.mu.Unlock()
	})

	return text, true
}

// Like flips the liked flag on a message
func (s *ChatService) Like(sessionID, messageID string) (*domain.Message, bool) {
	return s.toggleFlag(sessionID, messageID, func(m *domain.Message) {
		m.IsLiked = !m.IsLiked
	})
}

// Bookmark flips the bookmarked flag on a message
func (s *ChatService) Bookmark(sessionID, messageID string) (*domain.Message, bool) {
	return s.toggleFlag(sessionID, messageID, func(m *domain.Message) {
		m.IsBookmarked = !m.IsBookmarked
	})
}

func (s *ChatService) toggleFlag(sessionID, messageID string, flip func(*domain.Message)) (*domain.Message, bool) {
	sess, err := s.sessions.Load(sessionID)
	if err != nil {
		return nil, false
	}
	sess.mu.Lock()
	msg := sess.find(messageID)
	if msg == nil {
		sess.mu.Unlock()
		return nil, false
	}
	flip(msg)
	snapshot := *msg
	sess.mu.Unlock()

	if err := s.repo.SetFlags(messageID, snapshot.IsLiked, snapshot.IsBookmarked); err != nil {
		s.logger.Warn("failed to persist message flags", zap.Error(err))
	}
	return &snapshot, true
}

func (s *ChatService) buildRequest(token, question string) *domain.ChatRequest {
	if token == "" {
		// First turn: the upstream mints the real token, this placeholder
		// just has to be unique enough per conversation
		token = fmt.Sprintf("chat_session_%d", time.Now().UnixMilli())
	}
	return &domain.ChatRequest{
		SessionID:          token,
		Question:           question,
		UseRerankOnUnknown: s.cfg.Chat.UseRerankOnUnknown,
		TopKFirst:          s.cfg.Chat.TopKFirst,
		TopKRerank1:        s.cfg.Chat.TopKRerank1,
		TopKRerank2:        s.cfg.Chat.TopKRerank2,
		Temperature:        s.cfg.Chat.Temperature,
	}
}

// errorMessage synthesizes the single assistant message a failed call
// produces: error title, fixed body, contact footer.
func (s *ChatService) errorMessage(sessionID string, err error) *domain.Message {
	kind := domain.KindSystem
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		kind = ue.Kind
	}
	payload := s.client.Payload(kind)
	return &domain.Message{
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Type:      domain.MessageTypeText,
		Text:      []string{payload.Error, payload.Message, payload.Contact},
		CreatedAt: time.Now(),
	}
}

// decompose splits one upstream response into transcript entries: images
// first, then videos, then the text answer, all sharing one arrival
// timestamp. Media messages carry only the media citations that match their
// media ID; the text message carries the full citation sets.
func decompose(sessionID string, resp *domain.ChatResponse) []*domain.Message {
	now := time.Now()
	var messages []*domain.Message

	for i := range resp.Images {
		img := resp.Images[i]
		messages = append(messages, &domain.Message{
			SessionID:      sessionID,
			Role:           domain.RoleAssistant,
			Type:           domain.MessageTypeImage,
			Caption:        img.Title,
			Image:          &img,
			MediaCitations: matchingMediaCitations(img.ID, resp.MediaCitations),
			CreatedAt:      now,
		})
	}

	for i := range resp.Videos {
		vid := resp.Videos[i]
		messages = append(messages, &domain.Message{
			SessionID:      sessionID,
			Role:           domain.RoleAssistant,
			Type:           domain.MessageTypeVideo,
			Caption:        vid.Title,
			Video:          &vid,
			MediaCitations: matchingMediaCitations(vid.ID, resp.MediaCitations),
			CreatedAt:      now,
		})
	}

	if len(resp.Text) > 0 {
		messages = append(messages, &domain.Message{
			SessionID:      sessionID,
			Role:           domain.RoleAssistant,
			Type:           domain.MessageTypeText,
			Text:           resp.Text,
			Citations:      resp.Citations,
			MediaCitations: resp.MediaCitations,
			CreatedAt:      now,
		})
	}

	return messages
}

func matchingMediaCitations(mediaID string, citations []domain.MediaCitation) []domain.MediaCitation {
	var out []domain.MediaCitation
	for _, mc := range citations {
		if mc.MediaID == mediaID {
			out = append(out, mc)
		}
	}
	return out
}
