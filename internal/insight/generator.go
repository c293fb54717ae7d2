package insight

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/leaseup/internal/ai"
	"github.com/KaramelBytes/leaseup/internal/stats"
	"github.com/KaramelBytes/leaseup/internal/utils"
)

// DefaultTimeout bounds a single insight request.
const DefaultTimeout = 45 * time.Second

// Options configures a Generator.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Result is a successful insight. Text is the model output, unmodified.
type Result struct {
	ID               string        `json:"id"`
	Cluster          int           `json:"cluster"`
	Provider         string        `json:"provider,omitempty"`
	Model            string        `json:"model"`
	Prompt           string        `json:"prompt"`
	Text             string        `json:"text"`
	RequestID        string        `json:"request_id,omitempty"`
	Usage            ai.Usage      `json:"usage"`
	EstimatedCostUSD float64       `json:"estimated_cost_usd"`
	Duration         time.Duration `json:"duration_ns"`
}

// Generator sends one prompt per call. It never retries.
type Generator struct {
	runtime ai.Runtime
	opt     Options
}

// NewGenerator wraps rt. A nil rt yields a generator whose calls fail as unavailable.
func NewGenerator(rt ai.Runtime, opt Options) *Generator {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.Model == "" {
		opt.Model = ai.DefaultModel(opt.Provider)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Generator{runtime: rt, opt: opt}
}

// Model returns the model requests are sent to.
func (g *Generator) Model() string { return g.opt.Model }

// Generate builds the prompt for s and returns the runtime's answer. Every failure is an *Error.
func (g *Generator) Generate(ctx context.Context, s stats.Summary) (*Result, error) {
	prompt := BuildPrompt(s)
	if g.runtime == nil {
		return nil, &Error{Kind: KindUnavailable, Err: errors.New("no runtime configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, g.opt.Timeout)
	defer cancel()

	log := g.opt.Logger.With("cluster", s.Cluster, "model", g.opt.Model)
	log.Debug("requesting insight", "prompt_tokens_est", utils.CountTokens(prompt))
	start := time.Now()
	resp, err := g.runtime.Generate(ctx, ai.GenerateRequest{
		Model:       g.opt.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.opt.MaxTokens,
		Temperature: g.opt.Temperature,
	})
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(resp.Text()) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(context.DeadlineExceeded, err)
		}
		ierr := classify(err)
		log.Warn("insight failed", "kind", ierr.Kind, "elapsed", elapsed, "err", err)
		return nil, ierr
	}

	res := &Result{
		ID:        uuid.NewString(),
		Cluster:   s.Cluster,
		Provider:  g.opt.Provider,
		Model:     g.opt.Model,
		Prompt:    prompt,
		Text:      resp.Text(),
		RequestID: resp.RequestID,
		Usage:     resp.Usage,
		Duration:  elapsed,
	}
	if resp.Model != "" {
		res.Model = resp.Model
	}
	pt, ct := res.Usage.PromptTokens, res.Usage.CompletionTokens
	if pt == 0 && ct == 0 {
		pt, ct = utils.CountTokens(prompt), utils.CountTokens(res.Text)
	}
	if cost, ok := ai.EstimateCostUSD(g.opt.Model, pt, ct); ok {
		res.EstimatedCostUSD = cost
	}
	log.Info("insight generated", "id", res.ID, "request_id", res.RequestID, "elapsed", elapsed)
	return res, nil
}
