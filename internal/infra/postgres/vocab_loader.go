package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz/internal/domain"
)

// VocabLoader loads the vocabulary table from Postgres.
type VocabLoader struct {
	pool *pgxpool.Pool
}

func NewVocabLoader(pool *pgxpool.Pool) *VocabLoader {
	return &VocabLoader{pool: pool}
}

func (l *VocabLoader) LoadVocab(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, word, pos, meaning FROM vocab ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load vocab: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			id int64
			q  domain.Question
		)
		if err := rows.Scan(&id, &q.Word, &q.Pos, &q.Meaning); err != nil {
			return nil, fmt.Errorf("scan vocab: %w", err)
		}
		q.ID = domain.ID(strconv.FormatInt(id, 10))
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load vocab: %w", err)
	}
	return questions, nil
}
