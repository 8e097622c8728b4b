package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"
)

// SQLiteHistoryRepository is the poll history backed by database/sql and
// the modernc SQLite driver.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

func (r *SQLiteHistoryRepository) SavePoll(ctx context.Context, rec *model.PollRecord) error {
	var endedAt sql.NullInt64
	if rec.EndedAt != nil {
		endedAt = sql.NullInt64{Int64: rec.EndedAt.UnixNano(), Valid: true}
	}
	options := string(rec.Options)
	if options == "" {
		options = "[]"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO poll_history (id, question, options, time_limit, created_at, ended_at, is_active, total_students, total_votes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Question, options, rec.TimeLimit, rec.CreatedAt.UnixNano(), endedAt, rec.IsActive, rec.TotalStudents, rec.TotalVotes)
	if err != nil {
		return fmt.Errorf("insert poll %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteHistoryRepository) RecentPolls(ctx context.Context, limit int) ([]model.PollRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, question, options, time_limit, created_at, ended_at, is_active, total_students, total_votes
		FROM poll_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query poll history: %w", err)
	}
	defer rows.Close()

	polls := []model.PollRecord{}
	for rows.Next() {
		var (
			p         model.PollRecord
			options   string
			createdAt int64
			endedAt   sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Question, &options, &p.TimeLimit, &createdAt, &endedAt, &p.IsActive, &p.TotalStudents, &p.TotalVotes); err != nil {
			return nil, fmt.Errorf("scan poll history: %w", err)
		}
		p.Options = json.RawMessage(options)
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		if endedAt.Valid {
			t := time.Unix(0, endedAt.Int64).UTC()
			p.EndedAt = &t
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

func (r *SQLiteHistoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
