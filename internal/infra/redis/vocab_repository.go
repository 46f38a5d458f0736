package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-quiz/internal/domain"
)

// VocabLoader fetches the vocabulary from a backing store (e.g., Postgres).
type VocabLoader interface {
	LoadVocab(ctx context.Context) ([]domain.Question, error)
}

// VocabRepository caches the question set in Redis and falls back to a loader on cache miss.
// Questions are stored by position: HSET vocab:questions {index} {question JSON}.
// Ids are not required to be present or unique, so they cannot key the hash.
type VocabRepository struct {
	client *redis.Client
	loader VocabLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewVocabRepository(client *redis.Client, loader VocabLoader, ttl time.Duration) *VocabRepository {
	return &VocabRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *VocabRepository) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadVocab(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return qs, nil
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, questionsKey)
		for i, q := range qs {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, questionsKey, strconv.Itoa(i), data)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, questionsKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

const questionsKey = "vocab:questions"

func (r *VocabRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	entries, err := r.client.HGetAll(ctx, questionsKey).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	qs := make([]domain.Question, len(entries))
	for field, raw := range entries {
		i, err := strconv.Atoi(field)
		if err != nil || i < 0 || i >= len(qs) {
			return nil, false
		}
		if err := json.Unmarshal([]byte(raw), &qs[i]); err != nil {
			return nil, false
		}
	}
	return qs, true
}

func (r *VocabRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
