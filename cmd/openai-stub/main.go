// Command openai-stub is a tiny OpenAI-compatible server for exercising the
// answering loop offline. It always picks the first provided option for
// choice questions and returns a fixed string for fill-ins, which makes click
// behavior reproducible against a local quiz page.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type question struct {
	Idx      int      `json:"idx"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Type     string   `json:"type"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = req.Messages[0].Content
		}
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}

		var content string
		if strings.Contains(sys, "JSON array") {
			content = batchReply(user)
		} else {
			content = singleReply(user)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		})
	})

	log.Printf("openai-stub listening on %s (model %s)", addr, model)
	log.Fatal(http.ListenAndServe(addr, mux))
}

// batchReply answers a batch payload: the first option for each choice
// question, "stub" for fill-ins.
func batchReply(user string) string {
	var qs []question
	if err := json.Unmarshal([]byte(user), &qs); err != nil {
		return "[]"
	}
	type reply struct {
		Idx    int `json:"idx"`
		Answer any `json:"answer"`
	}
	out := make([]reply, 0, len(qs))
	for _, q := range qs {
		if len(q.Options) > 0 {
			out = append(out, reply{Idx: q.Idx, Answer: []string{q.Options[0]}})
		} else {
			out = append(out, reply{Idx: q.Idx, Answer: "stub"})
		}
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// singleReply answers one question payload in the single-question shape.
func singleReply(user string) string {
	var q question
	if err := json.Unmarshal([]byte(user), &q); err != nil {
		return `{"type":"fill","answer":"stub"}`
	}
	var payload map[string]any
	if len(q.Options) > 0 {
		payload = map[string]any{"type": "single", "answer": []string{q.Options[0]}}
	} else {
		payload = map[string]any{"type": "fill", "answer": "stub"}
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
