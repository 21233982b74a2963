package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hakalabs/hakabot/internal/domain"
)

// SessionRepository handles session and transcript persistence
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession creates a new session
func (r *SessionRepository) CreateSession(session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO sessions (id, upstream_token, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, session.ID, session.UpstreamToken, session.CreatedAt, session.UpdatedAt)

	return err
}

// GetSession retrieves a session by ID, or nil when none exists
func (r *SessionRepository) GetSession(id string) (*domain.Session, error) {
	session := &domain.Session{}
	var token sql.NullString

	err := r.db.QueryRow(`
		SELECT id, upstream_token, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &token, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if token.Valid {
		session.UpstreamToken = token.String
	}

	return session, nil
}

// SaveToken records the upstream session token after a successful turn
func (r *SessionRepository) SaveToken(sessionID, token string) error {
	_, err := r.db.Exec(`
		UPDATE sessions SET upstream_token = ?, updated_at = ? WHERE id = ?
	`, token, time.Now(), sessionID)
	return err
}

// CreateMessage appends a message to the transcript
func (r *SessionRepository) CreateMessage(message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	textJSON, _ := json.Marshal(message.Text)
	citationsJSON, _ := json.Marshal(message.Citations)
	mediaCitationsJSON, _ := json.Marshal(message.MediaCitations)
	mediaJSON := mediaColumn(message)

	_, err := r.db.Exec(`
		INSERT INTO messages (id, session_id, role, type, text, caption, media,
			citations, media_citations, is_liked, is_bookmarked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, message.ID, message.SessionID, string(message.Role), string(message.Type),
		string(textJSON), message.Caption, mediaJSON,
		string(citationsJSON), string(mediaCitationsJSON),
		message.IsLiked, message.IsBookmarked, message.CreatedAt)

	return err
}

// SetFlags persists the like/bookmark flags for a message. The copied flag
// is transient and never written.
func (r *SessionRepository) SetFlags(messageID string, liked, bookmarked bool) error {
	_, err := r.db.Exec(`
		UPDATE messages SET is_liked = ?, is_bookmarked = ? WHERE id = ?
	`, liked, bookmarked, messageID)
	return err
}

// GetMessages retrieves the transcript for a session in insertion order
func (r *SessionRepository) GetMessages(sessionID string) ([]*domain.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, role, type, text, caption, media,
			citations, media_citations, is_liked, is_bookmarked, created_at
		FROM messages WHERE session_id = ?
		ORDER BY rowid ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		var role, typ string
		var text, caption, media, citations, mediaCitations sql.NullString

		if err := rows.Scan(&message.ID, &message.SessionID, &role, &typ,
			&text, &caption, &media, &citations, &mediaCitations,
			&message.IsLiked, &message.IsBookmarked, &message.CreatedAt); err != nil {
			return nil, err
		}

		message.Role = domain.MessageRole(role)
		message.Type = domain.MessageType(typ)
		if caption.Valid {
			message.Caption = caption.String
		}
		if text.Valid && text.String != "" {
			json.Unmarshal([]byte(text.String), &message.Text)
		}
		if citations.Valid && citations.String != "" {
			json.Unmarshal([]byte(citations.String), &message.Citations)
		}
		if mediaCitations.Valid && mediaCitations.String != "" {
			json.Unmarshal([]byte(mediaCitations.String), &message.MediaCitations)
		}
		if media.Valid && media.String != "" {
			switch message.Type {
			case domain.MessageTypeImage:
				json.Unmarshal([]byte(media.String), &message.Image)
			case domain.MessageTypeVideo:
				json.Unmarshal([]byte(media.String), &message.Video)
			}
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func mediaColumn(message *domain.Message) string {
	switch message.Type {
	case domain.MessageTypeImage:
		if message.Image != nil {
			data, _ := json.Marshal(message.Image)
			return string(data)
		}
	case domain.MessageTypeVideo:
		if message.Video != nil {
			data, _ := json.Marshal(message.Video)
			return string(data)
		}
	}
	return ""
}
