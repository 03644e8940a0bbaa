// Package coach builds running-coach prompts and turns LLM failures into
// replies that can always be sent to the user.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kukucorn/ai-running-coach/internal/duration"
	"github.com/kukucorn/ai-running-coach/internal/llm"
)

// HistoryWindow is how many prior turns are rendered into a prompt.
const HistoryWindow = 5

const DefaultPersona = `
당신은 친절한 러닝 코치입니다.
사용자의 러닝 기록을 관리하고, 동기부여를 하며, 러닝에 대한 조언을 제공합니다.
항상 긍정적이고 격려하는 톤으로 대화하세요.
거리, 시간, 페이스 등의 러닝 데이터를 기록하고 분석할 수 있습니다.
`

var errEmptyCompletion = errors.New("empty completion")

type Responder struct {
	client  llm.Client
	persona string
}

// New returns a Responder. An empty persona selects DefaultPersona.
func New(client llm.Client, persona string) *Responder {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	return &Responder{client: client, persona: persona}
}

// Generate answers a free-text message. It never fails: on error the
// returned text is a fallback that embeds the reason.
func (r *Responder) Generate(ctx context.Context, userMessage string, history []llm.Message) string {
	out, err := r.complete(ctx, r.chatPrompt(userMessage, history))
	if err != nil {
		log.Printf("coach: generate failed: %v", err)
		return fmt.Sprintf("죄송합니다. 응답 생성 중 오류가 발생했습니다: %v", err)
	}
	return out
}

// Analyze produces feedback for a saved workout, with the same fallback
// contract as Generate.
func (r *Responder) Analyze(ctx context.Context, distanceKm float64, d, pace time.Duration) string {
	out, err := r.complete(ctx, r.analysisPrompt(distanceKm, d, pace))
	if err != nil {
		log.Printf("coach: analyze failed: %v", err)
		return fmt.Sprintf("기록 분석 중 오류가 발생했습니다: %v", err)
	}
	return out
}

func (r *Responder) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	log.Printf("coach: LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	if strings.TrimSpace(resp.Content) == "" {
		return "", errEmptyCompletion
	}
	return resp.Content, nil
}

func (r *Responder) chatPrompt(userMessage string, history []llm.Message) string {
	if len(history) == 0 {
		return fmt.Sprintf("%s\n\n사용자: %s", r.persona, userMessage)
	}
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
	}
	return fmt.Sprintf("%s\n\n이전 대화:\n%s\n\n사용자: %s", r.persona, strings.Join(lines, "\n"), userMessage)
}

func roleLabel(role string) string {
	if role == llm.RoleUser {
		return "사용자"
	}
	return "AI"
}

func (r *Responder) analysisPrompt(distanceKm float64, d, pace time.Duration) string {
	return fmt.Sprintf(`
%s

사용자가 다음과 같은 러닝 기록을 남겼습니다:
- 거리: %gkm
- 시간: %s
- 페이스: %s/km

이 기록을 분석하고 격려의 메시지와 함께 다음 러닝을 위한 조언을 해주세요.
`, r.persona, distanceKm, duration.FromStd(d), duration.FromStd(pace))
}
