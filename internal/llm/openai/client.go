package openai

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

	"github.com/google/uuid"

	"github.com/epiwatch/outbreak-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor against an OpenAI-compatible
// chat/completions endpoint. One outbound call per invocation; the client
// keeps no per-call state and is safe to share across workers.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.OutbreakFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	text := llm.TruncateText(req.Text, req.MaxChars)
	c.log.Debug("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"source_url", req.SourceURL,
		"text_len", len(text),
		"truncated", len(text) < len(req.Text),
	)

	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req.SourceURL, text)},
		},
		"temperature": c.cfg.Temperature,
		"top_p":       c.cfg.TopP,
		"max_tokens":  c.cfg.MaxTokens,
	}

	raw, err := c.post(ctx, c.completionsURL(), body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.OutbreakFields{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.OutbreakFields{}, raw, llm.NewError(llm.KindMalformed, fmt.Errorf("decode completion response: %w", err))
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.OutbreakFields{}, raw, llm.NewError(llm.KindMalformed, errors.New("no choices in completion response"))
	}

	out, rawContent, err := llm.DecodeFields(cc.Choices[0].Message.Content)
	if err != nil {
		c.log.Error("llm.extract.parse_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.OutbreakFields{}, rawContent, err
	}
	out.SourceURL = req.SourceURL

	c.log.Debug("llm.extract.ok",
		"req_id", rid,
		"pathogen", out.Pathogen,
		"country", out.OriginalCountry,
		"start_date", out.StartDate,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// completionsURL joins BaseURL with /chat/completions unless the base
// already points at it.
func (c *Client) completionsURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewError(llm.KindMalformed, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, llm.NewError(llm.KindMalformed, err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, llm.NewError(llm.KindTimeout, err)
		}
		return nil, llm.NewError(llm.KindTransient, fmt.Errorf("llm http error: %w", err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("llm response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, llm.NewError(llm.KindRateLimited, fmt.Errorf("llm status 429: %s", snippet(raw)))
	case resp.StatusCode >= 500:
		return nil, llm.NewError(llm.KindTransient, fmt.Errorf("llm status %d: %s", resp.StatusCode, snippet(raw)))
	case resp.StatusCode >= 400:
		return nil, llm.NewError(llm.KindMalformed, fmt.Errorf("llm status %d: %s", resp.StatusCode, snippet(raw)))
	}
	return raw, nil
}

func snippet(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
