package repository

import (
	"context"
	"fmt"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PollHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewPollHistoryRepository(pool *pgxpool.Pool) *PollHistoryRepository {
	return &PollHistoryRepository{pool: pool}
}

// SavePoll stores an ended poll. Saving the same poll twice is a no-op.
func (r *PollHistoryRepository) SavePoll(ctx context.Context, rec *model.PollRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO poll_history (id, question, options, time_limit, created_at, ended_at, is_active, total_students, total_votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.Question, rec.Options, rec.TimeLimit, rec.CreatedAt, rec.EndedAt, rec.IsActive, rec.TotalStudents, rec.TotalVotes)
	if err != nil {
		return fmt.Errorf("insert poll %s: %w", rec.ID, err)
	}
	return nil
}

// RecentPolls returns the newest ended polls first.
func (r *PollHistoryRepository) RecentPolls(ctx context.Context, limit int) ([]model.PollRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, options, time_limit, created_at, ended_at, is_active, total_students, total_votes
		FROM poll_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query poll history: %w", err)
	}
	defer rows.Close()

	polls := []model.PollRecord{}
	for rows.Next() {
		var p model.PollRecord
		if err := rows.Scan(&p.ID, &p.Question, &p.Options, &p.TimeLimit, &p.CreatedAt, &p.EndedAt, &p.IsActive, &p.TotalStudents, &p.TotalVotes); err != nil {
			return nil, fmt.Errorf("scan poll history: %w", err)
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

func (r *PollHistoryRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
