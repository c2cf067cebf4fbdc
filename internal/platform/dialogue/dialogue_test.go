package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
)

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"np":      LanguageNepali,
		" NP ":    LanguageNepali,
		"en":      LanguageEnglish,
		"":        LanguageEnglish,
		"nepali":  LanguageEnglish,
		"english": LanguageEnglish,
	}
	for in, want := range tests {
		if got := ParseLanguage(in); got != want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPrompt_WithReport(t *testing.T) {
	rc := &ReportContext{
		Prediction: "Pneumonia",
		Confidence: 0.9234,
		DoctorName: "Dr. Adhikari",
		Date:       time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC),
	}
	prompt := BuildPrompt("What does this mean?", rc, LanguageNepali)

	for _, want := range []string{
		"Current Patient Report Context:",
		"- Condition: Pneumonia",
		"- Confidence: 92.3%",
		"- Doctor's Notes: No notes provided",
		"- Doctor Name: Dr. Adhikari",
		"- Date: 3/7/2025",
		`User Question: "What does this mean?"`,
		"Devanagari script",
		"Do **NOT** prescribe specific medications or dosages.",
		"### 📋 Report Analysis",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_General(t *testing.T) {
	prompt := BuildPrompt("How do I sleep better?", nil, LanguageEnglish)

	if strings.Contains(prompt, "Current Patient Report Context:") {
		t.Error("general prompt must not carry report context")
	}
	for _, want := range []string{
		"You do NOT have a specific medical report",
		"respond in English.",
		"strictly limited to **Medical and Health-related** topics",
		"Do **NOT** prescribe specific medications or dosages.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReportContext_UnknownDoctor(t *testing.T) {
	rc := &ReportContext{Prediction: "Normal", Notes: "Follow up in 2 weeks"}
	out := rc.render()
	if !strings.Contains(out, "- Doctor Name: Unknown") {
		t.Errorf("render() = %q, want Unknown doctor", out)
	}
	if !strings.Contains(out, "- Doctor's Notes: Follow up in 2 weeks") {
		t.Errorf("render() = %q, want notes preserved", out)
	}
}

func newTestClient(baseURL, key string) *GeminiClient {
	return NewGeminiClient(config.DialogueConfig{
		APIKey:  key,
		Model:   "gemini-test",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}, nil, zap.NewNop())
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected request body %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi, "},{"text":"how can I help?"}]}}]}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL, "secret").Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "Hi, how can I help?" {
		t.Errorf("reply = %q", reply)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := newTestClient("http://unused", "").Generate(context.Background(), "hi")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("err = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, "k").Generate(context.Background(), "hi")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
		if !strings.Contains(err.Error(), "quota exceeded") {
			t.Errorf("err = %v, want upstream message", err)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, "k").Generate(context.Background(), "hi")
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})
}
