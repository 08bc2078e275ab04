package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Transport delivers a signed request to one translation backend and returns
// the raw wire response. Connectivity failures surface as TransportError;
// provider-reported failures stay inside the RawResponse for the mapper.
type Transport interface {
	Send(ctx context.Context, req *SignedRequest) (*RawResponse, error)
	Name() string
}

// DefaultRemoteEndpoint is the hosted translation API endpoint.
const DefaultRemoteEndpoint = "https://fanyi-api.baidu.com/api/trans/vip/translate"

const remoteRequestTimeout = 30 * time.Second

// RemoteTransport posts signed form requests to the hosted translation API.
type RemoteTransport struct {
	endpoint string
	client   *http.Client
}

// NewRemoteTransport builds a remote transport for the given endpoint.
// A blank endpoint falls back to the default hosted API.
func NewRemoteTransport(endpoint string) *RemoteTransport {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = DefaultRemoteEndpoint
	}
	return &RemoteTransport{
		endpoint: trimmed,
		client: &http.Client{
			Timeout: remoteRequestTimeout,
		},
	}
}

func (t *RemoteTransport) Name() string {
	return "remote"
}

func (t *RemoteTransport) Send(ctx context.Context, req *SignedRequest) (*RawResponse, error) {
	if t == nil {
		return nil, &TransportError{Op: "remote", Err: fmt.Errorf("transport is nil")}
	}
	if req == nil {
		return nil, &TransportError{Op: "remote", Err: fmt.Errorf("request is nil")}
	}

	form := url.Values{}
	form.Set("q", req.Query)
	form.Set("from", req.From)
	form.Set("to", req.To)
	if req.Signed() {
		form.Set("appid", req.AppID)
		form.Set("salt", req.Salt)
		form.Set("sign", req.Sign)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Op:  "send request",
			Err: fmt.Errorf("endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var parsed RawResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &parsed, nil
}
