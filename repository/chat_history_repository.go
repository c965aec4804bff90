package repository

import (
	"context"
	"fmt"

	"docchat-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatHistoryRepository handles database operations for the persisted
// conversation. Turns are append-only; creation time defines order.
type ChatHistoryRepository struct {
	db *pgxpool.Pool
}

// NewChatHistoryRepository creates a new chat history repository
func NewChatHistoryRepository(db *pgxpool.Pool) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

// Append stores one turn.
func (r *ChatHistoryRepository) Append(ctx context.Context, role, content string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO chat_history (role, content) VALUES ($1, $2)",
		role, content,
	)
	if err != nil {
		return fmt.Errorf("failed to append %s turn: %w", role, err)
	}
	return nil
}

// ListAll returns every turn in conversation order.
func (r *ChatHistoryRepository) ListAll(ctx context.Context) ([]models.ConversationTurn, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, role, content, created_at FROM chat_history ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(&turn.ID, &turn.Role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat history: %w", err)
	}

	return turns, nil
}
