package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

const uniqueViolation = "23505"

// PostgresStore persists state in Postgres through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects and verifies the database is reachable.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) CreateConversation(ctx context.Context, c chat.Conversation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, title, preview, updated_at, message_count)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Title, c.Preview, c.Timestamp, c.MessageCount,
	)
	if err != nil {
		return mapErr("insert conversation", err)
	}
	return nil
}

func (s *PostgresStore) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, preview, updated_at, message_count
		FROM conversations
		ORDER BY updated_at DESC, id
		LIMIT $1`, MaxConversations)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Conversation, 0)
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Preview, &c.Timestamp, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (chat.Conversation, error) {
	var c chat.Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, preview, updated_at, message_count
		FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Preview, &c.Timestamp, &c.MessageCount)
	if err != nil {
		return chat.Conversation{}, mapErr("get conversation", err)
	}
	return c, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const messageColumns = `id, conversation_id, role, content, created_at, agent_type, degraded`

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at, seq`, conversationID)
}

func (s *PostgresStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return s.ListMessages(ctx, conversationID)
	}
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+`, seq
			FROM messages WHERE conversation_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at, seq`, conversationID, limit)
}

func (s *PostgresStore) queryMessages(ctx context.Context, sql string, args ...any) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]chat.Message, 0)
	for rows.Next() {
		var (
			m         chat.Message
			role      string
			agentType string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Timestamp, &agentType, &m.Degraded); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = chat.Role(role)
		m.AgentType = chat.Category(agentType)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RecordTurn(ctx context.Context, turn Turn) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE conversations
		SET preview = $2, updated_at = $3, message_count = message_count + 2
		WHERE id = $1`,
		turn.User.ConversationID, turn.Preview, turn.At,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for _, m := range []chat.Message{turn.User, turn.Assistant} {
		_, err = tx.Exec(ctx, `
			INSERT INTO messages (id, conversation_id, role, content, created_at, agent_type, degraded)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, m.ConversationID, string(m.Role), m.Content, m.Timestamp, string(m.AgentType), m.Degraded,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
