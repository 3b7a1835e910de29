package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPOracle talks to a chat-completions style endpoint over HTTP/JSON,
// the shape every provider in this space exposes: a list of role/content
// messages in, a list of choices (each optionally carrying per-token
// log-probabilities) out. Retries/rate-limits are assumed to be handled
// by the provider-side client the caller configures via http.Client; this
// type issues exactly one HTTP call per Chat invocation.
type HTTPOracle struct {
	Endpoint string
	APIKey   string
	OrgID    string
	Model    Model
	Client   *http.Client
}

// NewHTTPOracle constructs an oracle bound to model. Callers plumb
// apiKey/orgID in from the LLM_API_KEY and LLM_ORG_ID environment
// variables.
func NewHTTPOracle(endpoint string, model Model, apiKey, orgID string) *HTTPOracle {
	return &HTTPOracle{
		Endpoint: endpoint,
		APIKey:   apiKey,
		OrgID:    orgID,
		Model:    model,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model            string             `json:"model"`
	Messages         []wireMessage      `json:"messages"`
	MaxTokens        int                `json:"max_tokens,omitempty"`
	Temperature      float64            `json:"temperature"`
	N                int                `json:"n,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	FrequencyPenalty float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64            `json:"presence_penalty,omitempty"`
	LogitBias        map[string]float64 `json:"logit_bias,omitempty"`
	Logprobs         bool               `json:"logprobs,omitempty"`
	TopLogprobs      int                `json:"top_logprobs,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []wireChoice `json:"choices"`
}

type wireChoice struct {
	Message  wireMessage   `json:"message"`
	Logprobs *wireLogprobs `json:"logprobs,omitempty"`
}

type wireLogprobs struct {
	Content []wireTokenLogprob `json:"content"`
}

type wireTokenLogprob struct {
	Token       string        `json:"token"`
	Logprob     float64       `json:"logprob"`
	TopLogprobs []wireTopProb `json:"top_logprobs,omitempty"`
}

type wireTopProb struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

// Chat issues exactly one HTTP request. Any non-2xx status, transport
// error, or malformed body is returned as an error; the agent layer is
// responsible for treating that as a failed try.
func (o *HTTPOracle) Chat(ctx context.Context, messages []Message, opts ChatOptions) ([]Choice, error) {
	req := chatRequest{
		Model:            string(o.Model),
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		N:                opts.N,
		Stop:             opts.Stop,
		FrequencyPenalty: opts.FrequencyPenalty,
		PresencePenalty:  opts.PresencePenalty,
		Logprobs:         opts.Logprobs,
		TopLogprobs:      opts.TopLogprobs,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	if len(opts.LogitBias) > 0 {
		req.LogitBias = make(map[string]float64, len(opts.LogitBias))
		for id, bias := range opts.LogitBias {
			req.LogitBias[fmt.Sprintf("%d", id)] = bias
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)
	if o.OrgID != "" {
		httpReq.Header.Set("OpenAI-Organization", o.OrgID)
	}

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "chat request transport")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read chat response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("chat request failed: status %d: %s", resp.StatusCode, string(raw))
	}

	var wire chatResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.Wrap(err, "unmarshal chat response")
	}

	choices := make([]Choice, 0, len(wire.Choices))
	for _, c := range wire.Choices {
		choice := Choice{Message: Message{Role: Role(c.Message.Role), Content: c.Message.Content}}
		if c.Logprobs != nil {
			for _, tlp := range c.Logprobs.Content {
				entry := TokenLogProb{Token: tlp.Token, LogProb: tlp.Logprob}
				for _, top := range tlp.TopLogprobs {
					entry.TopLogprobs = append(entry.TopLogprobs, TopLogProb{Token: top.Token, LogProb: top.Logprob})
				}
				choice.Logprobs = append(choice.Logprobs, entry)
			}
		}
		choices = append(choices, choice)
	}
	return choices, nil
}
