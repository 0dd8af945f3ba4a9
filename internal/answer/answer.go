// Package answer asks a chat model for exam answers under a strict JSON
// contract, both one question at a time and as a per-page batch.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/quizpilot/internal/llm"
)

// TypeSingle and TypeFill tag a question for the model: a question with
// options is a choice question, one without is fill-in-the-blank.
const (
	TypeSingle = "single"
	TypeFill   = "fill"
)

const answerCacheSize = 128

// Question is one unit of work for the model.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Type     string   `json:"type"`
}

// TypeOf returns the question-type tag implied by the option list.
func TypeOf(options []string) string {
	if len(options) > 0 {
		return TypeSingle
	}
	return TypeFill
}

// Answer is the model's structured reply. Choices holds the chosen option
// texts for choice questions; Text holds the fill-in answer, or the raw model
// output when the reply was not parseable JSON (Type "unknown").
type Answer struct {
	Type    string
	Choices []string
	Text    string
}

// IsChoice reports whether the answer selects from the provided options.
func (a Answer) IsChoice() bool { return len(a.Choices) > 0 }

// Display renders the answer for the operator.
func (a Answer) Display() string {
	if a.IsChoice() {
		return strings.Join(a.Choices, ", ")
	}
	return a.Text
}

const singleSystemPrompt = `You are an exam assistant. Given a question, options, and type, respond strictly with JSON {"type": <single|multi|fill>, "answer": [...] or string}.`

const batchSystemPrompt = `You are a careful exam assistant. Use only provided options when they exist; never invent new options. Return ONLY a JSON array: [{"idx": number, "answer": array or string}]. For choice questions, answer is an array of the original option text (keep any letter prefixes). For fill-in questions (no options), answer is a concise string. Keep items ordered by idx. No extra words.`

// Answerer calls the model and caches answers so re-extracting the same page
// does not re-ask identical questions.
type Answerer struct {
	Client      llm.Client
	Model       string
	Temperature float32
	MaxTokens   int
	Log         zerolog.Logger

	// sleep is injectable for tests; nil means time.Sleep.
	sleep func(time.Duration)

	cacheOnce sync.Once
	cache     *lru.Cache[string, Answer]
}

// Ask answers a single question. Transport errors get one short-backoff
// retry; an unparsable reply degrades to an Answer of type "unknown" carrying
// the raw text rather than an error.
func (an *Answerer) Ask(ctx context.Context, q Question) (Answer, error) {
	if an.Client == nil || strings.TrimSpace(an.Model) == "" {
		return Answer{}, errors.New("answerer not configured")
	}
	key := an.cacheKey(q)
	if a, ok := an.cacheGet(key); ok {
		return a, nil
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return Answer{}, fmt.Errorf("encode question: %w", err)
	}
	raw, err := an.chat(ctx, singleSystemPrompt, string(payload))
	if err != nil {
		return Answer{}, err
	}
	a := parseAnswer(raw)
	an.cachePut(key, a)
	return a, nil
}

// AskBatch answers several questions in one call and returns answers keyed by
// question index. A partial result (fewer answers than questions) is not an
// error; the caller asks the leftovers individually.
func (an *Answerer) AskBatch(ctx context.Context, qs []Question) (map[int]Answer, error) {
	if an.Client == nil || strings.TrimSpace(an.Model) == "" {
		return nil, errors.New("answerer not configured")
	}
	type batchItem struct {
		Idx int `json:"idx"`
		Question
	}
	items := make([]batchItem, 0, len(qs))
	for i, q := range qs {
		items = append(items, batchItem{Idx: i + 1, Question: q})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	raw, err := an.chat(ctx, batchSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var replies []struct {
		Idx    int             `json:"idx"`
		Answer json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal([]byte(raw), &replies); err != nil {
		return nil, fmt.Errorf("parse batch json: %w", err)
	}
	out := make(map[int]Answer, len(replies))
	for _, r := range replies {
		i := r.Idx - 1
		if i < 0 || i >= len(qs) || r.Answer == nil {
			continue
		}
		a := decodeAnswerField(qs[i].Type, r.Answer)
		out[i] = a
		an.cachePut(an.cacheKey(qs[i]), a)
	}
	if len(out) < len(qs) {
		an.Log.Warn().Int("answered", len(out)).Int("expected", len(qs)).Msg("partial batch answer")
	}
	return out, nil
}

// chat performs one completion with a single fixed-backoff retry on error.
func (an *Answerer) chat(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: an.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: an.Temperature,
		MaxTokens:   an.MaxTokens,
		N:           1,
	}
	resp, err := an.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		an.pause(500 * time.Millisecond)
		resp, err = an.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (an *Answerer) pause(d time.Duration) {
	if an.sleep != nil {
		an.sleep(d)
		return
	}
	time.Sleep(d)
}

// parseAnswer decodes the single-question reply, degrading to an "unknown"
// answer carrying the raw content when the model ignored the JSON contract.
func parseAnswer(raw string) Answer {
	var reply struct {
		Type   string          `json:"type"`
		Answer json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err == nil && reply.Type != "" && reply.Answer != nil {
		return decodeAnswerField(reply.Type, reply.Answer)
	}
	return Answer{Type: "unknown", Text: strings.TrimSpace(raw)}
}

// decodeAnswerField accepts either an array of option texts or a single
// string, the two shapes the contract allows.
func decodeAnswerField(qtype string, raw json.RawMessage) Answer {
	var choices []string
	if err := json.Unmarshal(raw, &choices); err == nil {
		return Answer{Type: qtype, Choices: choices}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Answer{Type: qtype, Text: text}
	}
	// Mixed-type arrays still count as choices.
	var anyList []any
	if err := json.Unmarshal(raw, &anyList); err == nil {
		out := make([]string, 0, len(anyList))
		for _, v := range anyList {
			out = append(out, fmt.Sprint(v))
		}
		return Answer{Type: qtype, Choices: out}
	}
	return Answer{Type: "unknown", Text: strings.TrimSpace(string(raw))}
}

func (an *Answerer) cacheKey(q Question) string {
	return an.Model + "\x00" + q.Type + "\x00" + q.Question + "\x00" + strings.Join(q.Options, "\x1f")
}

func (an *Answerer) initCache() {
	an.cacheOnce.Do(func() {
		an.cache, _ = lru.New[string, Answer](answerCacheSize)
	})
}

func (an *Answerer) cacheGet(key string) (Answer, bool) {
	an.initCache()
	return an.cache.Get(key)
}

func (an *Answerer) cachePut(key string, a Answer) {
	an.initCache()
	an.cache.Add(key, a)
}
