// Package advisory talks to the generative advisory service used for the
// financial literacy chat and the Mukando group summaries.
package advisory

import (
	"context"
	"errors"
	"strings"
)

// Language selects the reply language of the chat.
type Language string

const (
	English Language = "en"
	Shona   Language = "sn"
	Ndebele Language = "nd"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case English, Shona, Ndebele:
		return true
	default:
		return false
	}
}

// MaxSummaryWords bounds the length of a group summary.
const MaxSummaryWords = 200

// FallbackMessage is shown to users whenever the advisory service fails.
const FallbackMessage = "Sorry, I encountered an error. Please try again."

var (
	// ErrUnavailable is returned when no advisory service is configured.
	ErrUnavailable = errors.New("advisory service unavailable")

	// ErrUpstream wraps failed responses from the advisory service.
	ErrUpstream = errors.New("advisory service error")

	ErrInvalidLanguage = errors.New("language must be one of en, sn, nd")
	ErrEmptyInput      = errors.New("user input is required")
)

type ChatRequest struct {
	Language  Language `json:"language"`
	UserInput string   `json:"userInput"`
}

// Validate checks the language and that there is something to answer.
func (r ChatRequest) Validate() error {
	if !r.Language.Valid() {
		return ErrInvalidLanguage
	}
	if strings.TrimSpace(r.UserInput) == "" {
		return ErrEmptyInput
	}
	return nil
}

type ChatResponse struct {
	ChatbotResponse string `json:"chatbotResponse"`
}

type SummaryRequest struct {
	GroupName             string  `json:"groupName"`
	CurrentSavings        float64 `json:"currentSavings"`
	UpcomingNeeds         string  `json:"upcomingNeeds"`
	ContributionAmount    float64 `json:"contributionAmount"`
	ContributionFrequency string  `json:"contributionFrequency"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

// Advisor is the only surface the rest of the application sees. Calls are
// request/response; failures never affect ledger state.
type Advisor interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	SummarizeGroup(ctx context.Context, req SummaryRequest) (SummaryResponse, error)
}

// Unavailable is the advisor used when the service is not configured.
type Unavailable struct{}

func (Unavailable) Chat(context.Context, ChatRequest) (ChatResponse, error) {
	return ChatResponse{}, ErrUnavailable
}

func (Unavailable) SummarizeGroup(context.Context, SummaryRequest) (SummaryResponse, error) {
	return SummaryResponse{}, ErrUnavailable
}

// LimitWords truncates s to at most n whitespace separated words.
func LimitWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:n], " ")
}
