package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiOptions struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	MaxAttempts     int
}

type Gemini struct {
	opts GeminiOptions
}

func NewGemini(opts GeminiOptions) *Gemini {
	opts.APIKey = strings.TrimSpace(opts.APIKey)
	opts.Model = strings.TrimSpace(opts.Model)
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Gemini{opts: opts}
}

func (g *Gemini) Name() string { return "gemini" }

// Infer sends the photo and perception summary to Gemini and returns the
// first text part of the answer. Transport failures are retried with a linear
// backoff until MaxAttempts or ctx expires.
func (g *Gemini) Infer(ctx context.Context, req Request) (Reply, error) {
	if g.opts.APIKey == "" {
		return Reply{}, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.opts.APIKey))
	if err != nil {
		return Reply{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.opts.Model)
	if m == nil {
		return Reply{}, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(g.opts.Temperature),
		TopP:             ptrFloat32(0.9),
		ResponseMIMEType: "application/json",
	}
	if g.opts.MaxOutputTokens > 0 {
		m.GenerationConfig.MaxOutputTokens = ptrInt32(g.opts.MaxOutputTokens)
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	parts := []genai.Part{
		&genai.Blob{MIMEType: mime, Data: req.Image},
		genai.Text(userMessage(req.Perception)),
	}

	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			if attempt == g.opts.MaxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return Reply{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return Reply{}, fmt.Errorf("gemini: empty response")
		}
		reply := Reply{Text: txt, Model: g.opts.Model}
		if resp.UsageMetadata != nil {
			n := int(resp.UsageMetadata.TotalTokenCount)
			reply.TotalTokens = &n
		}
		return reply, nil
	}
	return Reply{}, fmt.Errorf("gemini: %d attempts failed: %w", g.opts.MaxAttempts, lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32 { return &v }
