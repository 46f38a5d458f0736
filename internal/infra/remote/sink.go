package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"vocab-quiz/internal/domain"
)

// Sink posts the answer log as {"items": [...]} and reads back {"redirect": "..."}.
type Sink struct {
	url    string
	client *http.Client
}

func NewSink(url string, client *http.Client) *Sink {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sink{url: url, client: client}
}

// SubmitResults makes a single attempt. Network errors, non-2xx replies and
// unreadable bodies are all domain.ErrSubmitTransport.
func (s *Sink) SubmitResults(ctx context.Context, items []domain.AnswerRecord) (domain.SubmitResult, error) {
	if items == nil {
		items = []domain.AnswerRecord{}
	}
	payload, err := json.Marshal(domain.FinishRequest{Items: items})
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("encode results: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrSubmitTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrSubmitTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.SubmitResult{}, fmt.Errorf("%w: status %d", domain.ErrSubmitTransport, resp.StatusCode)
	}
	var result domain.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("%w: decode reply: %v", domain.ErrSubmitTransport, err)
	}
	return result, nil
}
