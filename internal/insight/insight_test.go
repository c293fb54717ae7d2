package insight

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/leaseup/internal/ai"
	"github.com/KaramelBytes/leaseup/internal/stats"
)

type fakeRuntime struct {
	calls int
	req   ai.GenerateRequest
	resp  *ai.GenerateResponse
	err   error
	block bool
}

func (f *fakeRuntime) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.calls++
	f.req = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func text(s string) *ai.GenerateResponse {
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s}}}, RequestID: "req-1"}
}

func sampleSummary() stats.Summary {
	return stats.Summary{
		Cluster:        2,
		Size:           14,
		Age:            stats.MeanStd{Mean: 3.456, Std: 1.2},
		Competition:    stats.MeanStd{Mean: 5, Std: 2.345},
		Rent:           stats.MeanStd{Mean: 1850.5, Std: 210.004},
		Occupancy:      stats.MeanStd{Mean: 0.875, Std: 0.05},
		DominantSeason: "Winter",
	}
}

func TestBuildPromptIsExactTemplate(t *testing.T) {
	want := "You are a real estate analyst specializing in property lease-up trends.\n" +
		"Based on the following summary statistics for a cluster of properties:\n" +
		"- Age at Delivery (years): Mean = 3.46, Std = 1.20\n" +
		"- Submarket Competition (number of nearby deliveries): Mean = 5.00, Std = 2.35\n" +
		"- Rent at Delivery ($): Mean = 1850.50, Std = 210.00\n" +
		"- Average Occupancy in First 3 Months: Mean = 0.88, Std = 0.05\n" +
		"- Dominant Season of Delivery: Winter\n" +
		"Provide an insight describing the lease-up behavior of this cluster, focusing on how these features influence performance."
	got := BuildPrompt(sampleSummary())
	assert.Equal(t, want, got)
	assert.Equal(t, got, BuildPrompt(sampleSummary()), "prompt is deterministic")
}

func TestBuildPromptUndefinedValues(t *testing.T) {
	nan := stats.Number(math.NaN())
	s := stats.Summary{
		Age:            stats.MeanStd{Mean: 4, Std: nan},
		Competition:    stats.MeanStd{Mean: nan, Std: nan},
		Rent:           stats.MeanStd{Mean: nan, Std: nan},
		Occupancy:      stats.MeanStd{Mean: nan, Std: nan},
		DominantSeason: stats.NotAvailable,
	}
	p := BuildPrompt(s)
	assert.Contains(t, p, "Mean = 4.00, Std = nan")
	assert.Contains(t, p, "Mean = nan, Std = nan")
	assert.NotContains(t, p, "NaN")
	assert.Contains(t, p, "Dominant Season of Delivery: N/A")
}

func TestGenerateReturnsTextVerbatim(t *testing.T) {
	body := "  **Cluster 2** leases up fast.\n\n- winter deliveries  "
	rt := &fakeRuntime{resp: text(body)}
	g := NewGenerator(rt, Options{Provider: ai.ProviderOpenAI, MaxTokens: 300})

	res, err := g.Generate(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, body, res.Text)
	assert.Equal(t, 1, rt.calls)
	assert.Equal(t, "gpt-4o-mini", rt.req.Model)
	require.Len(t, rt.req.Messages, 1)
	assert.Equal(t, "user", rt.req.Messages[0].Role)
	assert.Equal(t, BuildPrompt(sampleSummary()), rt.req.Messages[0].Content)
	assert.Equal(t, 300, rt.req.MaxTokens)
	assert.Equal(t, 2, res.Cluster)
	assert.Equal(t, "req-1", res.RequestID)
	assert.NotEmpty(t, res.ID)
	assert.Greater(t, res.EstimatedCostUSD, 0.0)
}

func TestGenerateFailures(t *testing.T) {
	api := &ai.APIError{StatusCode: 400, Message: "x"}
	cases := []struct {
		name string
		rt   *fakeRuntime
		kind Kind
	}{
		{"auth", &fakeRuntime{err: &ai.AuthError{APIError: api}}, KindAuth},
		{"rate", &fakeRuntime{err: &ai.RateLimitError{APIError: api}}, KindRateLimited},
		{"model", &fakeRuntime{err: &ai.ModelNotFoundError{APIError: api}}, KindModelNotFound},
		{"bad", &fakeRuntime{err: &ai.BadRequestError{APIError: api}}, KindBadRequest},
		{"quota", &fakeRuntime{err: &ai.QuotaExceededError{APIError: api}}, KindQuota},
		{"server", &fakeRuntime{err: &ai.ServerError{APIError: api}}, KindProvider},
		{"unreachable", &fakeRuntime{err: &ai.UnreachableError{Host: "h", Err: errors.New("refused")}}, KindUnavailable},
		{"decode", &fakeRuntime{err: fmt.Errorf("decode response: %w", ai.ErrMalformedResponse)}, KindMalformed},
		{"no choices", &fakeRuntime{resp: &ai.GenerateResponse{}}, KindMalformed},
		{"empty content", &fakeRuntime{resp: text("")}, KindMalformed},
		{"nil response", &fakeRuntime{}, KindMalformed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewGenerator(c.rt, Options{Model: "m"})
			res, err := g.Generate(context.Background(), sampleSummary())
			assert.Nil(t, res)
			var ie *Error
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, c.kind, ie.Kind)
			assert.NotEmpty(t, ie.Message())
			assert.Equal(t, 1, c.rt.calls, "no retry at this layer")
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	rt := &fakeRuntime{block: true}
	g := NewGenerator(rt, Options{Model: "m", Timeout: 20 * time.Millisecond})
	_, err := g.Generate(context.Background(), sampleSummary())
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, KindTimeout, ie.Kind)
	assert.True(t, strings.Contains(ie.Message(), "time"))
}

func TestGenerateWithoutRuntime(t *testing.T) {
	g := NewGenerator(nil, Options{})
	_, err := g.Generate(context.Background(), sampleSummary())
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, KindUnavailable, ie.Kind)
}
