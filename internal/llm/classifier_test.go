package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/classify"
)

type stubProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (s *stubProvider) Name() string                     { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func (s *stubProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return nil, s.err
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return &CompletionResponse{Text: reply, Mode: "chat"}, nil
}

type recordingLimiter struct {
	keys []string
	err  error
}

func (l *recordingLimiter) Wait(_ context.Context, key string) error {
	l.keys = append(l.keys, key)
	return l.err
}

var summaries = []classify.ProfileSummary{
	{ID: "msa", DocTypeNames: []string{"Master Services Agreement", "MSA"}},
	{ID: "nda", DocTypeNames: []string{"Non-Disclosure Agreement"}},
}

func TestBuildClassificationPrompt(t *testing.T) {
	prompt := BuildClassificationPrompt("This Agreement is made…", summaries)

	assert.Contains(t, prompt, "- msa: Master Services Agreement, MSA\n")
	assert.Contains(t, prompt, "- nda: Non-Disclosure Agreement\n")
	assert.Contains(t, prompt, "Document excerpt (first 23 characters):\n-----\nThis Agreement is made…\n-----")
	assert.Contains(t, prompt, `"pack_id": "most_likely_pack_id"`)
	assert.True(t, strings.HasSuffix(prompt, "reasoning should be 1-2 sentences max"))
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  classify.FallbackResult
	}{
		{"plain", `{"pack_id":"msa","confidence":0.85,"reasoning":"Has SOWs."}`, classify.FallbackResult{PackID: "msa", Confidence: 0.85, Reasoning: "Has SOWs."}},
		{"fenced", "```json\n{\"pack_id\": \"nda\", \"confidence\": 0.6}\n```", classify.FallbackResult{PackID: "nda", Confidence: 0.6}},
		{"prose around", `Sure! Here it is: {"pack_id":" msa ","confidence":"0.7","reasoning":" x "} Hope that helps.`, classify.FallbackResult{PackID: "msa", Confidence: 0.7, Reasoning: "x"}},
		{"missing confidence", `{"pack_id":"msa"}`, classify.FallbackResult{PackID: "msa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseClassification_Errors(t *testing.T) {
	for _, reply := range []string{
		"I cannot classify this document.",
		`{"pack_id": "msa", "confidence": }`,
		`{"confidence": 0.9}`,
		`{"pack_id":"msa","confidence":"high"}`,
		`{"pack_id":"msa","confidence":[1]}`,
	} {
		_, err := ParseClassification(reply)
		assert.Error(t, err, reply)
	}
}

func TestClassifier_Classify(t *testing.T) {
	provider := &stubProvider{replies: []string{`{"pack_id":"msa","confidence":0.8,"reasoning":"Services."}`}}
	limiter := &recordingLimiter{}
	c := NewClassifier(provider, WithRateLimiter(limiter), WithCache(cache.NewMemoryCache(time.Hour, time.Minute), 0))

	got, err := c.Classify(context.Background(), "services excerpt", summaries)
	require.NoError(t, err)
	assert.Equal(t, &classify.FallbackResult{PackID: "msa", Confidence: 0.8, Reasoning: "Services.", Mode: "chat"}, got)
	assert.Equal(t, []string{"stub"}, limiter.keys)

	// same excerpt is answered from the cache without waiting or calling
	again, err := c.Classify(context.Background(), "services excerpt", summaries)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Len(t, provider.prompts, 1)
	assert.Len(t, limiter.keys, 1)

	_, err = c.Classify(context.Background(), "another excerpt", summaries)
	require.NoError(t, err)
	assert.Len(t, provider.prompts, 2)
}

func TestClassifier_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewClassifier(&stubProvider{replies: []string{`{}`}}).Classify(ctx, "x", nil)
	assert.Error(t, err, "no profiles")

	_, err = NewClassifier(&stubProvider{replies: []string{`{"pack_id":"lease","confidence":0.9}`}}).Classify(ctx, "x", summaries)
	assert.ErrorContains(t, err, `unknown pack id "lease"`)

	boom := errors.New("boom")
	_, err = NewClassifier(&stubProvider{err: boom}).Classify(ctx, "x", summaries)
	assert.ErrorIs(t, err, boom)

	provider := &stubProvider{replies: []string{`{"pack_id":"msa","confidence":0.9}`}}
	_, err = NewClassifier(provider, WithRateLimiter(&recordingLimiter{err: context.DeadlineExceeded})).Classify(ctx, "x", summaries)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, provider.prompts)
}

func TestClassifier_ErrorsAreNotCached(t *testing.T) {
	provider := &stubProvider{replies: []string{"not json", `{"pack_id":"nda","confidence":0.9}`}}
	c := NewClassifier(provider, WithCache(cache.NewMemoryCache(time.Hour, time.Minute), 0))

	_, err := c.Classify(context.Background(), "x", summaries)
	require.Error(t, err)

	got, err := c.Classify(context.Background(), "x", summaries)
	require.NoError(t, err)
	assert.Equal(t, "nda", got.PackID)
}

func TestClassifier_AsFallback(t *testing.T) {
	provider := &stubProvider{replies: []string{`{"pack_id":"nda","confidence":0.9,"reasoning":"Confidentiality terms."}`}}

	profiles := testProfiles()
	res := classify.New(classifyConfig(), classify.WithFallback(NewClassifier(provider))).
		Classify(context.Background(), "short text", profiles)

	assert.Equal(t, "nda", res.Selected)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, "llm_fallback(chat): Confidentiality terms.", res.Candidates[0].Reason)
}
