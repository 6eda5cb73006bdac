package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/undercover/internal/models"
)

const (
	// DefaultHistoryLimit is how many finished games a history listing returns.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps a single listing.
	MaxHistoryLimit = 100
)

// ClampHistoryLimit maps a requested listing size onto [1, MaxHistoryLimit];
// non-positive requests get the default.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}

// HistoryStore persists the action log and serves finished-game history.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore wraps an open pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// SaveActions writes a batch of records in one transaction. Each record
// upserts its game row; a game_finished record completes it.
func (h *HistoryStore) SaveActions(ctx context.Context, batch []models.ActionRecord) error {
	if len(batch) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.SessionCode, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, session_code, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (id) DO NOTHING
	`
	createdAt := time.UnixMilli(rec.Timestamp)
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, rec.SessionCode, createdAt); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, createdAt,
	); err != nil {
		return err
	}

	if rec.ActionType != models.ActionGameFinished {
		return nil
	}
	sum := SummaryFromRecord(rec)
	finalizeQ := `
		UPDATE games
		SET status = 'completed', winner = $2, civilian_word = $3, impostor_word = $4,
			rounds = $5, player_count = $6, end_time = $7
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, finalizeQ,
		rec.GameID, sum.Winner, sum.CivilianWord, sum.ImpostorWord, sum.Rounds, sum.PlayerCount, createdAt,
	)
	return err
}

// MarkAbandoned closes a game that stopped receiving actions before it finished.
func (h *HistoryStore) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := h.pool.Exec(ctx, q, gameID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecentGames lists the most recently finished games, newest first.
func (h *HistoryStore) RecentGames(ctx context.Context, limit int) ([]models.GameSummary, error) {
	limit = ClampHistoryLimit(limit)
	q := `
		SELECT id, session_code, COALESCE(winner, ''), COALESCE(civilian_word, ''),
			COALESCE(impostor_word, ''), rounds, player_count, start_time, end_time
		FROM games
		WHERE status = 'completed'
		ORDER BY end_time DESC
		LIMIT $1
	`
	rows, err := h.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	defer rows.Close()

	var out []models.GameSummary
	for rows.Next() {
		var (
			g              models.GameSummary
			started, ended time.Time
		)
		if err := rows.Scan(&g.GameID, &g.SessionCode, &g.Winner, &g.CivilianWord,
			&g.ImpostorWord, &g.Rounds, &g.PlayerCount, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.StartedAt = started.UnixMilli()
		g.EndedAt = ended.UnixMilli()
		out = append(out, g)
	}
	return out, rows.Err()
}

// SummaryFromRecord reads the outcome carried by a game_finished record.
// Numbers arrive as float64 once the record went through JSON.
func SummaryFromRecord(rec models.ActionRecord) models.GameSummary {
	p := rec.ActionPayload
	return models.GameSummary{
		GameID:       rec.GameID,
		SessionCode:  rec.SessionCode,
		Winner:       payloadString(p, "winner"),
		CivilianWord: payloadString(p, "civilianWord"),
		ImpostorWord: payloadString(p, "impostorWord"),
		Rounds:       payloadInt(p, "rounds"),
		PlayerCount:  payloadInt(p, "players"),
		EndedAt:      rec.Timestamp,
	}
}

func payloadString(p map[string]interface{}, key string) string {
	s, _ := p[key].(string)
	return s
}

func payloadInt(p map[string]interface{}, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
