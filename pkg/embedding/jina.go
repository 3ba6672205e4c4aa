package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

const (
	DefaultJinaURL   = "https://api.jina.ai/v1/embeddings"
	DefaultJinaModel = "jina-embeddings-v3"
	DefaultJinaTask  = "text-matching"
)

type JinaConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Task    string
	Timeout time.Duration
}

type JinaRequest struct {
	Model string   `json:"model"`
	Task  string   `json:"task,omitempty"`
	Input []string `json:"input"`
}

type JinaResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type JinaClient struct {
	BaseURL    string
	HTTPClient *http.Client
	apiKey     string
	model      string
	task       string
}

var _ Client = (*JinaClient)(nil)

func NewJinaClient(cfg JinaConfig) (*JinaClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: jina api key is required", ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultJinaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultJinaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &JinaClient{
		BaseURL: cfg.BaseURL,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		task:   cfg.Task,
	}, nil
}

func (c *JinaClient) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := JinaRequest{
		Model: c.model,
		Task:  c.task,
		Input: texts,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %w", ErrEmbeddingService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrEmbeddingService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: jina returned status %d: %s", ErrEmbeddingService, resp.StatusCode, string(body))
	}

	var out JinaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", ErrEmbeddingService, err)
	}

	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbeddingService, len(out.Data), len(texts))
	}

	sort.SliceStable(out.Data, func(i, j int) bool {
		return out.Data[i].Index < out.Data[j].Index
	})

	embeddings := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}
