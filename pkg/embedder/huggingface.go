package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// HuggingFaceInferenceURL is the default Inference API host
const HuggingFaceInferenceURL = "https://api-inference.huggingface.co"

// HuggingFaceEmbedder calls the feature-extraction pipeline of the
// Hugging Face Inference API. Sentence-transformers models return one
// pooled vector per input.
type HuggingFaceEmbedder struct {
	baseURL    string
	modelID    string
	token      string
	httpClient *http.Client

	mu  sync.Mutex
	dim int // learned from the first response
}

type hfEmbedRequest struct {
	Inputs  []string        `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewHuggingFaceEmbedder creates a client for modelID.
// baseURL may be empty to use the public Inference API.
func NewHuggingFaceEmbedder(baseURL, modelID, token string) *HuggingFaceEmbedder {
	if baseURL == "" {
		baseURL = HuggingFaceInferenceURL
	}
	return &HuggingFaceEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelID:    modelID,
		token:      token,
		httpClient: &http.Client{},
	}
}

// Embed generates an embedding for a single text
func (c *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in a single request
func (c *HuggingFaceEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(hfEmbedRequest{
		Inputs:  texts,
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.baseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("API error %d: %v", resp.StatusCode, errorBody)
	}

	var raw [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vecs, err := unitVectors(raw, len(texts))
	if err != nil {
		return nil, fmt.Errorf("huggingface: %w", err)
	}

	c.mu.Lock()
	if c.dim == 0 {
		c.dim = len(vecs[0])
	}
	c.mu.Unlock()

	return vecs, nil
}

// Dimension returns the embedding dimension, known after the first request
func (c *HuggingFaceEmbedder) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dim
}

// ModelInfo returns model information
func (c *HuggingFaceEmbedder) ModelInfo() string {
	return "hf-" + c.modelID
}
