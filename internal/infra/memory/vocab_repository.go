package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-quiz/internal/domain"
)

// VocabLoader fetches the vocabulary from a backing store (Postgres, HTTP, files).
type VocabLoader interface {
	LoadVocab(ctx context.Context) ([]domain.Question, error)
}

const vocabKey = "vocab"

// VocabRepository caches the question set with TTL so each new session does
// not hit the backing store.
type VocabRepository struct {
	loader VocabLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu     sync.RWMutex
	cached []domain.Question
	expiry time.Time
	loaded bool
}

func NewVocabRepository(loader VocabLoader, ttl time.Duration) *VocabRepository {
	return &VocabRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions returns the cached question set, loading it on a miss.
// Concurrent misses share one load.
func (r *VocabRepository) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.fresh(r.clock()); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(vocabKey, func() (interface{}, error) {
		now := r.clock()
		if qs, ok := r.fresh(now); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadVocab(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = qs
		r.expiry = now.Add(r.ttlWithJitter())
		r.loaded = true
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *VocabRepository) fresh(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loaded && r.expiry.After(now) {
		return r.cached, true
	}
	return nil, false
}

func (r *VocabRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticVocabLoader serves a fixed vocabulary (useful for tests/demos).
type StaticVocabLoader struct {
	questions []domain.Question
}

func NewStaticVocabLoader(questions []domain.Question) *StaticVocabLoader {
	return &StaticVocabLoader{questions: questions}
}

func (l *StaticVocabLoader) LoadVocab(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}
