package answer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// fakeClient replays canned completions and records calls.
type fakeClient struct {
	replies []string
	errs    []error
	calls   int
	lastReq openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: reply}}},
	}, nil
}

func newAnswerer(c *fakeClient) *Answerer {
	return &Answerer{
		Client: c,
		Model:  "test-model",
		Log:    zerolog.Nop(),
		sleep:  func(time.Duration) {},
	}
}

func TestAsk_ChoiceAnswer(t *testing.T) {
	c := &fakeClient{replies: []string{`{"type":"single","answer":["B. 4"]}`}}
	a, err := newAnswerer(c).Ask(context.Background(), Question{
		Question: "2+2=?",
		Options:  []string{"A. 3", "B. 4"},
		Type:     TypeSingle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.IsChoice() || !reflect.DeepEqual(a.Choices, []string{"B. 4"}) {
		t.Fatalf("unexpected answer %+v", a)
	}
}

func TestAsk_FillAnswer(t *testing.T) {
	c := &fakeClient{replies: []string{`{"type":"fill","answer":"four"}`}}
	a, err := newAnswerer(c).Ask(context.Background(), Question{Question: "2+2=?", Type: TypeFill})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsChoice() || a.Text != "four" {
		t.Fatalf("unexpected answer %+v", a)
	}
}

func TestAsk_NonJSONFallsBackToRaw(t *testing.T) {
	c := &fakeClient{replies: []string{"The answer is B."}}
	a, err := newAnswerer(c).Ask(context.Background(), Question{Question: "q", Type: TypeFill})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != "unknown" || a.Text != "The answer is B." {
		t.Fatalf("expected raw fallback, got %+v", a)
	}
}

func TestAsk_RetriesOnceThenFails(t *testing.T) {
	boom := errors.New("boom")
	c := &fakeClient{errs: []error{boom, boom}}
	_, err := newAnswerer(c).Ask(context.Background(), Question{Question: "q", Type: TypeFill})
	if err == nil {
		t.Fatalf("expected error after retry")
	}
	if c.calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", c.calls)
	}
}

func TestAsk_RetrySucceeds(t *testing.T) {
	c := &fakeClient{
		errs:    []error{errors.New("transient"), nil},
		replies: []string{"", `{"type":"fill","answer":"ok"}`},
	}
	a, err := newAnswerer(c).Ask(context.Background(), Question{Question: "q", Type: TypeFill})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text != "ok" {
		t.Fatalf("unexpected answer %+v", a)
	}
}

func TestAsk_CachesByQuestion(t *testing.T) {
	c := &fakeClient{replies: []string{`{"type":"single","answer":["A"]}`}}
	an := newAnswerer(c)
	q := Question{Question: "q", Options: []string{"A"}, Type: TypeSingle}
	if _, err := an.Ask(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := an.Ask(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected cached second ask, got %d calls", c.calls)
	}
}

func TestAskBatch_PartialTolerated(t *testing.T) {
	c := &fakeClient{replies: []string{`[
	  {"idx":1,"answer":["A. one"]},
	  {"idx":3,"answer":"filled"}
	]`}}
	an := newAnswerer(c)
	qs := []Question{
		{Question: "q1", Options: []string{"A. one"}, Type: TypeSingle},
		{Question: "q2", Options: []string{"B. two"}, Type: TypeSingle},
		{Question: "q3", Type: TypeFill},
	}
	got, err := an.AskBatch(context.Background(), qs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Choices, []string{"A. one"}) {
		t.Fatalf("unexpected first answer %+v", got[0])
	}
	if got[2].Text != "filled" {
		t.Fatalf("unexpected third answer %+v", got[2])
	}
	if _, ok := got[1]; ok {
		t.Fatalf("unanswered index must be absent")
	}
}

func TestAskBatch_OutOfRangeIndexIgnored(t *testing.T) {
	c := &fakeClient{replies: []string{`[{"idx":9,"answer":"x"},{"idx":0,"answer":"y"}]`}}
	got, err := newAnswerer(c).AskBatch(context.Background(), []Question{{Question: "q", Type: TypeFill}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no usable answers, got %v", got)
	}
}

func TestAskBatch_NonJSONIsError(t *testing.T) {
	c := &fakeClient{replies: []string{"not json"}}
	if _, err := newAnswerer(c).AskBatch(context.Background(), []Question{{Question: "q", Type: TypeFill}}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf([]string{"A"}) != TypeSingle {
		t.Fatalf("options imply a choice question")
	}
	if TypeOf(nil) != TypeFill {
		t.Fatalf("no options imply fill-in")
	}
}

func TestBatchFillsSingleCache(t *testing.T) {
	c := &fakeClient{replies: []string{`[{"idx":1,"answer":["A"]}]`}}
	an := newAnswerer(c)
	q := Question{Question: "q", Options: []string{"A"}, Type: TypeSingle}
	if _, err := an.AskBatch(context.Background(), []Question{q}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := an.Ask(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected single ask to hit batch-filled cache, got %d calls", c.calls)
	}
}
