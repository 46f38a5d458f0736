package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vocab-quiz/internal/domain"
)

// Source reads the vocabulary from an HTTP endpoint returning a JSON array
// of {id, word, pos, meaning}.
type Source struct {
	url    string
	client *http.Client
}

func NewSource(url string, client *http.Client) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{url: url, client: client}
}

// LoadVocab fetches the question set. Anything other than a JSON array is
// reported as domain.ErrNoContent.
func (s *Source) LoadVocab(ctx context.Context) ([]domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build vocab request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, domain.ErrNoContent
	}
	var questions []domain.Question
	if err := json.Unmarshal(body, &questions); err != nil {
		return nil, fmt.Errorf("decode vocab: %w", err)
	}
	return questions, nil
}
