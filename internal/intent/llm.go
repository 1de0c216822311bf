package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/matijazezelj/monbot/pkg/models"
)

const systemPrompt = `You are an assistant for a network monitoring system.
Analyze the user's request and respond with JSON only:
{"intent": "<topology_config|maintenance|host_search|metrics|alerts|graph>", "parameters": {...}}`

// LLMClient calls an external generateContent-style endpoint to classify a
// request. It is an optional augmentation: any failure makes the caller fall
// back to the rule-based classifier.
type LLMClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewLLMClient creates a client with a bounded request timeout.
func NewLLMClient(endpoint, model, apiKey string, timeout time.Duration) *LLMClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type llmRequest struct {
	Contents []llmContent `json:"contents"`
}

type llmContent struct {
	Parts []llmPart `json:"parts"`
}

type llmPart struct {
	Text string `json:"text"`
}

type llmResponse struct {
	Candidates []struct {
		Content llmContent `json:"content"`
	} `json:"candidates"`
}

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// Classify asks the model to classify the request. The returned command has
// a fingerprint computed the same way as the rule-based path so cache keys
// stay canonical regardless of which classifier produced them.
func (c *LLMClient) Classify(ctx context.Context, text string) (models.Command, error) {
	body, err := json.Marshal(llmRequest{
		Contents: []llmContent{{Parts: []llmPart{{Text: systemPrompt + "\n\nUser: " + text}}}},
	})
	if err != nil {
		return models.Command{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.Command{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.Command{}, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort cleanup

	if resp.StatusCode >= 400 {
		return models.Command{}, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var lr llmResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return models.Command{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(lr.Candidates) == 0 || len(lr.Candidates[0].Content.Parts) == 0 {
		return models.Command{}, fmt.Errorf("model returned no candidates")
	}

	raw := jsonBlockRe.FindString(lr.Candidates[0].Content.Parts[0].Text)
	if raw == "" {
		return models.Command{}, fmt.Errorf("model response contains no JSON")
	}

	var parsed struct {
		Intent     models.Intent     `json:"intent"`
		Parameters map[string]string `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return models.Command{}, fmt.Errorf("parsing model JSON: %w", err)
	}
	if !parsed.Intent.Valid() || parsed.Intent == models.IntentUnknown {
		return models.Command{}, fmt.Errorf("model returned unusable intent %q", parsed.Intent)
	}

	return models.Command{
		Intent:      parsed.Intent,
		Parameters:  parsed.Parameters,
		Fingerprint: Fingerprint(parsed.Intent, parsed.Parameters),
	}, nil
}

// Resolver combines the optional LLM path with the rule-based classifier.
// The LLM is tried first when configured; on any error or timeout the
// request degrades to the rule-based path rather than failing.
type Resolver struct {
	classifier *Classifier
	llm        *LLMClient
	logger     *slog.Logger
}

// NewResolver creates a Resolver. llm may be nil.
func NewResolver(classifier *Classifier, llm *LLMClient, logger *slog.Logger) *Resolver {
	return &Resolver{classifier: classifier, llm: llm, logger: logger}
}

// Resolve classifies text into a Command.
func (r *Resolver) Resolve(ctx context.Context, text string) models.Command {
	if r.llm != nil {
		cmd, err := r.llm.Classify(ctx, text)
		if err == nil {
			return cmd
		}
		r.logger.Warn("model classification failed, using rule-based path", "error", err)
	}
	return r.classifier.Classify(text)
}
