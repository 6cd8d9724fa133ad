package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
)

func newTestGenerator(t *testing.T, handler http.Handler) (*OpenAIGenerator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := NewOpenAIGenerator(OpenAIOptions{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return g, srv
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIOptions{}); err == nil {
		t.Fatalf("missing api key accepted")
	}
}

func TestSynthesizeSuccess(t *testing.T) {
	mux := http.NewServeMux()
	var gotReq openAIImageRequest
	var serverURL string
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"data":[{"url":"%s/result.png"}]}`, serverURL)
	})
	mux.HandleFunc("/result.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png bytes"))
	})
	g, srv := newTestGenerator(t, mux)
	serverURL = srv.URL

	result, err := g.Synthesize(context.Background(), SynthesizeRequest{
		Style:  "cute-fluffy",
		Prompt: "wearing a scarf",
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(result.Data) != "png bytes" {
		t.Fatalf("data = %q", result.Data)
	}
	if result.ContentType != "image/png" {
		t.Fatalf("contentType = %q", result.ContentType)
	}
	if result.ProviderURL != serverURL+"/result.png" {
		t.Fatalf("providerURL = %q", result.ProviderURL)
	}

	if gotReq.Model != "dall-e-3" || gotReq.N != 1 || gotReq.Size != "1024x1024" {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if gotReq.Quality != "standard" || gotReq.ResponseFormat != "url" {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
	if !strings.Contains(gotReq.Prompt, "wearing a scarf") {
		t.Fatalf("user hint missing from prompt")
	}
}

func TestSynthesizeClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   domain.SynthesisErrorKind
		msg    string
	}{
		{
			name:   "content policy code",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"Your request was rejected by our safety system","code":"content_policy_violation"}}`,
			kind:   domain.SynthesisPolicyRejected,
			msg:    "safety system",
		},
		{
			name:   "user error type",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"flagged","type":"image_generation_user_error"}}`,
			kind:   domain.SynthesisPolicyRejected,
			msg:    "flagged",
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit exceeded"}}`,
			kind:   domain.SynthesisRateLimited,
			msg:    "Rate limit",
		},
		{
			name:   "bad credentials",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"Incorrect API key provided"}}`,
			kind:   domain.SynthesisAuthInvalid,
			msg:    "Incorrect API key",
		},
		{
			name:   "server error without body",
			status: http.StatusInternalServerError,
			body:   ``,
			kind:   domain.SynthesisUnknown,
			msg:    "provider status 500",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))

			_, err := g.Synthesize(context.Background(), SynthesizeRequest{Style: "cute-fluffy"})
			var synthErr *domain.SynthesisError
			if !errors.As(err, &synthErr) {
				t.Fatalf("error = %v, want SynthesisError", err)
			}
			if synthErr.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", synthErr.Kind, tc.kind)
			}
			if !strings.Contains(synthErr.Message, tc.msg) {
				t.Fatalf("message = %q, want substring %q", synthErr.Message, tc.msg)
			}
		})
	}
}

func TestSynthesizeEmptyResponse(t *testing.T) {
	g, _ := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	_, err := g.Synthesize(context.Background(), SynthesizeRequest{Style: "cute-fluffy"})
	var synthErr *domain.SynthesisError
	if !errors.As(err, &synthErr) || synthErr.Kind != domain.SynthesisUnknown {
		t.Fatalf("error = %v, want unknown SynthesisError", err)
	}
}
