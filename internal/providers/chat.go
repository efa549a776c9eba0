package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// chatMessage è un messaggio nel formato chat OpenAI-compatibile
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest è il payload di una chat completion OpenAI-compatibile
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
}

// chatResponse è la risposta di una chat completion OpenAI-compatibile
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// buildChatRequest assembla la richiesta a partire da prompt, task e
// opzioni, applicando i default del provider
func (b *BaseProvider) buildChatRequest(prompt string, task TaskType, opts *Options) chatRequest {
	if opts == nil {
		opts = &Options{}
	}

	system := opts.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.cfg.MaxTokens
	}

	temperature := b.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	return chatRequest{
		Model: b.ModelFor(task),
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        opts.Stop,
	}
}

// chatComplete esegue una chat completion e normalizza l'esito in una
// Response. Qualunque errore di trasporto o di parsing diventa una
// Response fallita.
func (b *BaseProvider) chatComplete(ctx context.Context, req chatRequest, confidence float64) Response {
	start := time.Now()

	if err := b.waitQuota(ctx); err != nil {
		return NewFailure(b.name, req.Model, time.Since(start), fmt.Errorf("rate limit wait: %w", err))
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Str("provider", b.name).Str("model", req.Model).Msg("Chat completion request failed")
		return NewFailure(b.name, req.Model, elapsed, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return NewFailure(b.name, req.Model, elapsed, fmt.Errorf("malformed response: %w", err))
	}

	if resp.IsError() {
		msg := resp.Status()
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return NewFailure(b.name, req.Model, elapsed, fmt.Errorf("API error: %s", msg))
	}

	if len(parsed.Choices) == 0 {
		return NewFailure(b.name, req.Model, elapsed, fmt.Errorf("no choices in response"))
	}

	log.Debug().
		Str("provider", b.name).
		Str("model", req.Model).
		Int("tokens", parsed.Usage.TotalTokens).
		Dur("elapsed", elapsed).
		Msg("Chat completion succeeded")

	return NewSuccess(b.name, req.Model, parsed.Choices[0].Message.Content, elapsed, parsed.Usage.TotalTokens, confidence)
}

// probeModels verifica la raggiungibilità del backend interrogando
// l'endpoint /models, comune alle API OpenAI-compatibili
func (b *BaseProvider) probeModels(ctx context.Context) bool {
	if b.client == nil {
		return false
	}

	resp, err := b.client.R().
		SetContext(ctx).
		Get("/models")
	if err != nil {
		log.Debug().Err(err).Str("provider", b.name).Msg("Connectivity probe failed")
		return false
	}

	return resp.IsSuccess()
}
