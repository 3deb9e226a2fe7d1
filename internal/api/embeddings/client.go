package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"docsearch/internal/config"
)

// Client for turning query text into embedding vectors via an
// OpenAI-compatible REST endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
	logger     *slog.Logger
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewClient initialize embeddings Client with the key fetched from Vault
func NewClient(logger *slog.Logger, conf config.EmbeddingsConfig, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: conf.Timeout},
		endpoint:   conf.Endpoint,
		model:      conf.Model,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Embed returns the embedding vector of the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "embeddings.Embed"
	log := c.logger.With(slog.String("op", op))

	body, err := json.Marshal(embedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("embedding request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error("embedding endpoint returned error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)))
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var parsed embedResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%s: empty embedding response", op)
	}
	return parsed.Data[0].Embedding, nil
}
