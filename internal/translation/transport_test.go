package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteTransportSendsSignedForm(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if contentType := r.Header.Get("Content-Type"); contentType != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", contentType)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}

		_ = json.NewEncoder(w).Encode(RawResponse{
			From:        "en",
			To:          "zh",
			TransResult: []TransSegment{{Src: "hello", Dst: "你好"}},
		})
	}))
	defer server.Close()

	transport := NewRemoteTransport(server.URL)
	req := BuildSignedRequest("hello", "en", "zh", Credentials{AppID: "app", Secret: "sec"})

	resp, err := transport.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.TransResult[0].Dst != "你好" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if gotForm["q"] != "hello" || gotForm["from"] != "en" || gotForm["to"] != "zh" {
		t.Fatalf("unexpected form payload: %v", gotForm)
	}
	if gotForm["appid"] != "app" || gotForm["salt"] != req.Salt || gotForm["sign"] != req.Sign {
		t.Fatalf("expected auth fields on signed request: %v", gotForm)
	}
}

func TestRemoteTransportOmitsAuthFieldsWhenUnsigned(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Has("appid") || r.PostForm.Has("salt") || r.PostForm.Has("sign") {
			t.Errorf("unsigned request must not carry auth fields: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(RawResponse{ErrorCode: "54001"})
	}))
	defer server.Close()

	transport := NewRemoteTransport(server.URL)
	resp, err := transport.Send(context.Background(), BuildSignedRequest("hello", "auto", "zh", Credentials{}))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.ErrorCode != "54001" {
		t.Fatalf("provider error codes must pass through untouched: %+v", resp)
	}
}

func TestRemoteTransportFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	transport := NewRemoteTransport(server.URL)
	_, err := transport.Send(context.Background(), BuildSignedRequest("hello", "en", "zh", Credentials{}))
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestRemoteTransportConnectionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	transport := NewRemoteTransport(server.URL)
	_, err := transport.Send(context.Background(), BuildSignedRequest("hello", "en", "zh", Credentials{}))
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestLocalTransportSynthesizesResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var chatReq localChatRequest
		if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if chatReq.Model != "test-model" {
			t.Errorf("unexpected model %q", chatReq.Model)
		}
		if len(chatReq.Messages) != 1 {
			t.Errorf("expected one message, got %d", len(chatReq.Messages))
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" 你好世界 "}}]}`))
	}))
	defer server.Close()

	transport := NewLocalTransport(server.URL, "test-model")
	resp, err := transport.Send(context.Background(), &SignedRequest{
		Query: "hello world",
		From:  "en",
		To:    "zh",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.From != "en" || resp.To != "zh" {
		t.Fatalf("unexpected language metadata: %+v", resp)
	}
	if len(resp.TransResult) != 1 || resp.TransResult[0].Dst != "你好世界" {
		t.Fatalf("expected trimmed single-segment result: %+v", resp)
	}
}

func TestLocalTransportErrorPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"model not loaded"}}`))
	}))
	defer server.Close()

	transport := NewLocalTransport(server.URL, "")
	_, err := transport.Send(context.Background(), &SignedRequest{Query: "hi", From: "en", To: "zh"})
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestChatCompletionsURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		endpoint string
		want     string
	}{
		{"http://127.0.0.1:8845/v1", "http://127.0.0.1:8845/v1/chat/completions"},
		{"http://127.0.0.1:8845/v1/chat/completions", "http://127.0.0.1:8845/v1/chat/completions"},
		{"http://localhost:9001", "http://localhost:9001/v1/chat/completions"},
		{"http://localhost:9001/llm", "http://localhost:9001/llm/v1/chat/completions"},
	}
	for _, tc := range cases {
		if got := chatCompletionsURL(normalizeEndpoint(tc.endpoint)); got != tc.want {
			t.Fatalf("chatCompletionsURL(%q) = %q, want %q", tc.endpoint, got, tc.want)
		}
	}
}

func TestNormalizeEndpointFallsBack(t *testing.T) {
	t.Parallel()

	if got := normalizeEndpoint("   "); got != DefaultLocalEndpoint {
		t.Fatalf("blank endpoint must fall back, got %q", got)
	}
	if got := normalizeEndpoint("localhost:8845"); got != "http://localhost:8845/v1" {
		t.Fatalf("schemeless endpoint must gain http, got %q", got)
	}
}
