package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Flow names exposed by the advisory flow server.
const (
	chatFlow    = "financialHealthChatbotFlow"
	summaryFlow = "summarizeGroupSavingsFlow"
)

// HTTPAdvisor calls flows over HTTP. Each flow is POSTed at {base}/{flow} with
// the input wrapped as {"data": ...} and answers {"result": ...}.
type HTTPAdvisor struct {
	base   string
	client *http.Client
}

// NewHTTP builds an advisor against base. A zero timeout leaves requests
// bounded only by their context.
func NewHTTP(base string, timeout time.Duration) *HTTPAdvisor {
	return &HTTPAdvisor{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// New returns an HTTP advisor for base, or Unavailable when base is empty.
func New(base string, timeout time.Duration) Advisor {
	if strings.TrimSpace(base) == "" {
		return Unavailable{}
	}
	return NewHTTP(base, timeout)
}

func (a *HTTPAdvisor) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return ChatResponse{}, err
	}
	var out ChatResponse
	if err := a.call(ctx, chatFlow, req, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

func (a *HTTPAdvisor) SummarizeGroup(ctx context.Context, req SummaryRequest) (SummaryResponse, error) {
	var out SummaryResponse
	if err := a.call(ctx, summaryFlow, req, &out); err != nil {
		return SummaryResponse{}, err
	}
	out.Summary = LimitWords(out.Summary, MaxSummaryWords)
	return out, nil
}

type flowRequest struct {
	Data any `json:"data"`
}

type flowResponse struct {
	Result json.RawMessage `json:"result"`
}

func (a *HTTPAdvisor) call(ctx context.Context, flow string, in, out any) error {
	body, err := json.Marshal(flowRequest{Data: in})
	if err != nil {
		return fmt.Errorf("encode %s input: %w", flow, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/"+flow, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, flow, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, flow, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %v", ErrUpstream, flow, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, flow, resp.StatusCode)
	}

	var envelope flowResponse
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Result) == 0 {
		return fmt.Errorf("%w: %s: malformed response", ErrUpstream, flow)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: %s: malformed result: %v", ErrUpstream, flow, err)
	}
	return nil
}
