package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ventureforge/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) SessionRepository {
	return &sqliteRepository{db: db}
}

// documentColumns maps patchable document field names to their columns.
// Patch rejects anything outside this set.
var documentColumns = map[string]string{
	"status":                "status",
	"profile":               "profile",
	"answers":               "answers",
	"ai_recommendations":    "ai_recommendations",
	"chosen_recommendation": "chosen_recommendation",
	"offer":                 "offer",
	"demo_config":           "demo_config",
	"conversation_history":  "conversation_history",
}

func (r *sqliteRepository) Create(ctx context.Context, record *model.SessionRecord) error {
	query := `
		INSERT INTO sessions (id, status, profile, answers, ai_recommendations, chosen_recommendation, offer, demo_config, conversation_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Status,
		marshalNullable(record.Profile),
		marshalNullable(record.Answers),
		marshalNullable(record.Recommendations),
		marshalNullable(record.ChosenRecommendation),
		marshalNullable(record.Offer),
		marshalNullable(record.DemoConfig),
		marshalNullable(record.History),
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}

func (r *sqliteRepository) Get(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	query := `
		SELECT id, status, profile, answers, ai_recommendations, chosen_recommendation, offer, demo_config, conversation_history, created_at, updated_at
		FROM sessions WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, sessionID)

	var rec model.SessionRecord
	var profile, answers, recommendations, chosen, offer, demo, history sql.NullString
	err := row.Scan(&rec.ID, &rec.Status, &profile, &answers, &recommendations, &chosen, &offer, &demo, &history, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := unmarshalNullable(profile, &rec.Profile); err != nil {
		return nil, fmt.Errorf("could not decode profile: %w", err)
	}
	if err := unmarshalNullable(answers, &rec.Answers); err != nil {
		return nil, fmt.Errorf("could not decode answers: %w", err)
	}
	if err := unmarshalNullable(recommendations, &rec.Recommendations); err != nil {
		return nil, fmt.Errorf("could not decode recommendations: %w", err)
	}
	if err := unmarshalNullable(chosen, &rec.ChosenRecommendation); err != nil {
		return nil, fmt.Errorf("could not decode chosen recommendation: %w", err)
	}
	if err := unmarshalNullable(offer, &rec.Offer); err != nil {
		return nil, fmt.Errorf("could not decode offer: %w", err)
	}
	if err := unmarshalNullable(demo, &rec.DemoConfig); err != nil {
		return nil, fmt.Errorf("could not decode demo config: %w", err)
	}
	if err := unmarshalNullable(history, &rec.History); err != nil {
		return nil, fmt.Errorf("could not decode history: %w", err)
	}
	return &rec, nil
}

// Patch updates only the named document fields. Column order is sorted so
// the generated SQL is deterministic, which keeps the sqlmock tests stable.
func (r *sqliteRepository) Patch(ctx context.Context, sessionID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := documentColumns[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []string
	var args []any
	for _, name := range names {
		sets = append(sets, documentColumns[name]+" = ?")
		value := fields[name]
		if s, ok := value.(string); ok && name == "status" {
			args = append(args, s)
			continue
		}
		args = append(args, marshalNullable(value))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, sessionID)

	query := "UPDATE sessions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendHistory reads, extends and rewrites conversation_history inside one
// transaction so concurrent turns cannot drop each other's messages.
func (r *sqliteRepository) AppendHistory(ctx context.Context, sessionID string, messages []model.ConversationMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing sql.NullString
	row := tx.QueryRowContext(ctx, "SELECT conversation_history FROM sessions WHERE id = ?", sessionID)
	if err := row.Scan(&existing); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	var history []model.ConversationMessage
	if existing.Valid && existing.String != "" {
		if err := json.Unmarshal([]byte(existing.String), &history); err != nil {
			return fmt.Errorf("could not decode existing history: %w", err)
		}
	}
	history = append(history, messages...)

	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("could not encode history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET conversation_history = ?, updated_at = ? WHERE id = ?",
		string(encoded), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("could not update history: %w", err)
	}

	return tx.Commit()
}

// marshalNullable encodes a value as JSON, mapping nil (and typed nils) to
// SQL NULL instead of the literal string "null".
func marshalNullable(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	encoded, err := json.Marshal(v)
	if err != nil || string(encoded) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(encoded), Valid: true}
}

func unmarshalNullable(src sql.NullString, dst any) error {
	if !src.Valid || src.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(src.String), dst)
}
