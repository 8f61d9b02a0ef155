// Package llm forwards chat messages to a hosted text-generation endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const noResponse = "No response"

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is required")

// UpstreamError is an error reported by the inference endpoint itself.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

// Relay calls the inference endpoint.
type Relay struct {
	url    string
	apiKey string
	client *http.Client
}

// NewRelay constructs a Relay with its own HTTP client.
func NewRelay(url, apiKey string, timeout time.Duration) *Relay {
	return &Relay{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Reply sends message wrapped in the instruction template and returns the
// generated text, or "No response" when the endpoint produced none.
func (r *Relay) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	body, err := json.Marshal(inferenceRequest{Inputs: fmt.Sprintf("<s>[INST] %s [/INST]", message)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read inference response: %w", err)
	}
	return parseReply(raw)
}

// parseReply handles both shapes the endpoint returns: a list of generations
// or an object carrying an error.
func parseReply(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var gens []generation
		if err := json.Unmarshal(raw, &gens); err != nil {
			return "", fmt.Errorf("decode inference response: %w", err)
		}
		if len(gens) == 0 || gens[0].GeneratedText == "" {
			return noResponse, nil
		}
		return gens[0].GeneratedText, nil
	}

	var obj struct {
		Error         json.RawMessage `json:"error"`
		GeneratedText string          `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}
	if len(obj.Error) > 0 && string(obj.Error) != "null" {
		var msg string
		if err := json.Unmarshal(obj.Error, &msg); err != nil {
			msg = string(obj.Error)
		}
		return "", &UpstreamError{Message: msg}
	}
	if obj.GeneratedText == "" {
		return noResponse, nil
	}
	return obj.GeneratedText, nil
}
