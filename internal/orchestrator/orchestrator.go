// Package orchestrator turns a user request into a validated structured
// query payload with a single chat completion call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/datenollm/internal/config"
	"github.com/ziadkadry99/datenollm/internal/flagging"
	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/llm"
	"github.com/ziadkadry99/datenollm/internal/prompt"
	"github.com/ziadkadry99/datenollm/internal/response"
)

// TransportError wraps a failure of the chat completion call.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat completion: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Settings are the resolved defaults used when a call does not override them.
type Settings struct {
	Prompt        string  `json:"prompt"`
	Model         string  `json:"model"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	OpenAIAPIBase string  `json:"openai_api_base"`
	FlaggingDir   string  `json:"flagging_dir"`
}

// Orchestrator holds read-only settings and is safe for concurrent use.
type Orchestrator struct {
	settings  Settings
	provider  llm.Provider
	validator response.Validator
	log       logrus.FieldLogger
	flags     *flagging.Log
	now       func() time.Time
}

// New resolves the defaults of cfg. Zero-valued model parameters take the
// package defaults; a *config.Error is returned when what remains is
// unusable. A nil validator passes model output through unchanged.
func New(cfg config.Config, provider llm.Provider, validator response.Validator, logger logrus.FieldLogger) (*Orchestrator, error) {
	if provider == nil {
		return nil, errors.New("orchestrator: provider is required")
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = config.DefaultTemperature
	}
	if cfg.TopP == 0 {
		cfg.TopP = config.DefaultTopP
	}
	if cfg.OpenAIAPIBase == "" {
		cfg.OpenAIAPIBase = config.DefaultOpenAIAPIBase
	}
	if cfg.FlaggingDir == "" {
		cfg.FlaggingDir = config.DefaultFlaggingDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	systemPrompt := cfg.Prompt
	if systemPrompt == "" {
		p, err := prompt.LoadFile(cfg.PromptFile)
		if err != nil {
			return nil, err
		}
		if p == "" && cfg.PromptFile != "" && logger != nil {
			logger.WithField("path", cfg.PromptFile).Warn("prompt file not found, using empty prompt")
		}
		systemPrompt = p
	}

	if validator == nil {
		validator = response.NopValidator{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}

	return &Orchestrator{
		settings: Settings{
			Prompt:        systemPrompt,
			Model:         cfg.Model,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			OpenAIAPIBase: cfg.OpenAIAPIBase,
			FlaggingDir:   cfg.FlaggingDir,
		},
		provider:  provider,
		validator: validator,
		log:       logger,
		flags:     &flagging.Log{Dir: cfg.FlaggingDir},
		now:       time.Now,
	}, nil
}

// Settings returns a copy of the resolved defaults.
func (o *Orchestrator) Settings() Settings {
	return o.settings
}

// Overrides replace defaults for a single call. Zero values mean "use the
// default".
type Overrides struct {
	Prompt        string  `json:"prompt,omitempty"`
	Model         string  `json:"model,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	OpenAIAPIBase string  `json:"openai_api_base,omitempty"`
}

// resolve merges ov over the defaults.
func (o *Orchestrator) resolve(ov Overrides) Overrides {
	r := Overrides{
		Prompt:        o.settings.Prompt,
		Model:         o.settings.Model,
		MaxTokens:     o.settings.MaxTokens,
		Temperature:   o.settings.Temperature,
		TopP:          o.settings.TopP,
		OpenAIAPIBase: o.settings.OpenAIAPIBase,
	}
	if ov.Prompt != "" {
		r.Prompt = ov.Prompt
	}
	if ov.Model != "" {
		r.Model = ov.Model
	}
	if ov.MaxTokens > 0 {
		r.MaxTokens = ov.MaxTokens
	}
	if ov.Temperature != 0 {
		r.Temperature = ov.Temperature
	}
	if ov.TopP != 0 {
		r.TopP = ov.TopP
	}
	if ov.OpenAIAPIBase != "" {
		r.OpenAIAPIBase = ov.OpenAIAPIBase
	}
	return r
}

// Result is the outcome of one model call.
type Result struct {
	Text     string
	Model    string
	Fallback bool
}

// Ask answers one user turn. params is a JSON object that may carry
// history, prompt, model, max_tokens, temperature and top_p; an empty
// string means no overrides.
func (o *Orchestrator) Ask(ctx context.Context, message, params string) (string, error) {
	res, err := o.AskResult(ctx, message, params)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// AskResult is Ask with call details.
func (o *Orchestrator) AskResult(ctx context.Context, message, params string) (*Result, error) {
	p, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{
		"message": message,
		"history": len(p.History),
		"model":   p.Model,
	}).Debug("ask")
	return o.complete(ctx, p.History, message, p.Overrides)
}

// FilterRequest asks the model to narrow data according to Message.
type FilterRequest struct {
	Message string          `json:"message"`
	History history.History `json:"history"`
	Data    any             `json:"data"`
	Overrides
}

// Filter runs a filtering request. The instruction and data are sent as one
// composite user message.
func (o *Orchestrator) Filter(ctx context.Context, req FilterRequest) (string, error) {
	res, err := o.FilterResult(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// FilterResult is Filter with call details.
func (o *Orchestrator) FilterResult(ctx context.Context, req FilterRequest) (*Result, error) {
	msg, err := prompt.FilterMessage(req.Message, req.Data)
	if err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{
		"message": req.Message,
		"history": len(req.History),
		"model":   req.Model,
	}).Debug("filter")
	return o.complete(ctx, req.History, msg, req.Overrides)
}

func (o *Orchestrator) complete(ctx context.Context, h history.History, message string, ov Overrides) (*Result, error) {
	r := o.resolve(ov)
	systemPrompt := prompt.Expand(r.Prompt, o.now())

	o.log.WithFields(logrus.Fields{
		"model":           r.Model,
		"max_tokens":      r.MaxTokens,
		"temperature":     r.Temperature,
		"top_p":           r.TopP,
		"openai_api_base": r.OpenAIAPIBase,
	}).Debug("chat completion parameters")

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:       r.Model,
		Messages:    prompt.Assemble(systemPrompt, h, message),
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		TopP:        r.TopP,
		BaseURL:     r.OpenAIAPIBase,
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	text := response.Check(o.validator, response.Normalize(resp.Content), o.log)
	o.log.WithField("response", text).Debug("model response")
	return &Result{Text: text, Model: r.Model, Fallback: response.IsFallback(text)}, nil
}

// Logs returns the flagging log path when the file exists.
func (o *Orchestrator) Logs() (string, bool) {
	if !o.flags.Exists() {
		return "", false
	}
	return o.flags.Path(), true
}

// LikeRequest records feedback on a conversation turn.
type LikeRequest struct {
	Index    int             `json:"index"`
	Messages history.History `json:"messages"`
	Like     bool            `json:"like"`
}

// Feedback returns the mark recorded for the request.
func (r LikeRequest) Feedback() history.Feedback {
	if r.Like {
		return history.FeedbackLike
	}
	return history.FeedbackDislike
}

// Like appends the feedback to the flagging log.
func (o *Orchestrator) Like(ctx context.Context, req LikeRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := flagging.Record{
		Conversation: req.Messages,
		Index:        req.Index,
		LikeDislike:  req.Feedback(),
		Flag:         o.now(),
	}
	if err := o.flags.Append(rec); err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	o.log.WithFields(logrus.Fields{"index": req.Index, "feedback": rec.LikeDislike}).Info("feedback recorded")
	return nil
}
