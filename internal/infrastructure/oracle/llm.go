package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

// SystemPrompt states the matching rules and the wire format
const SystemPrompt = `당신은 식품 데이터 매칭 전문가입니다.

입력: JSON 배열. 각 원소는 {"id": 번호, "query": 검색할제품명, "candidates": [{"index": 숫자, "name": 식품명}, ...]}
출력: JSON 배열만 (설명 없이). 형식: [{"id": 번호, "matched_index": 숫자또는null, "reason": "간단한이유"}, ...]

매칭 규칙:
- 핵심 품목명(닭가슴살, 어묵, 팝콘, 두부 등)이 같아야 함
- 맛/향 차이(마늘맛 vs 오리지널)는 허용
- 브랜드 차이는 허용
- 완전히 다른 식품이거나 후보가 모두 부적합하면 null
- 유사도가 낮고 연관이 없으면 null (억지 매칭 금지)
- matched_index 는 해당 원소의 candidates 안의 index 중 하나여야 함`

// ChatClient is the subset of the go-openai client the oracle needs
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMOracle asks a chat completion model to adjudicate a batch
type LLMOracle struct {
	client    ChatClient
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewLLMOracle creates an oracle for an OpenAI-compatible endpoint.
// An empty baseURL uses the public OpenAI API.
func NewLLMOracle(apiKey, baseURL, model string, maxTokens int) *LLMOracle {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewLLMOracleWithClient(openai.NewClientWithConfig(cfg), model, maxTokens)
}

// NewLLMOracleWithClient wraps an existing chat client
func NewLLMOracleWithClient(client ChatClient, model string, maxTokens int) *LLMOracle {
	if model == "" {
		model = "gpt-4.1"
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &LLMOracle{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		log:       logger.Named("oracle.llm"),
	}
}

// Decide sends the batch as a JSON array and parses the model's JSON answer
func (o *LLMOracle) Decide(ctx context.Context, req domain.AdjudicationRequest) ([]domain.OracleDecision, error) {
	payload, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", domain.ErrMalformedResponse)
	}

	o.log.Debug().
		Int("items", len(req.Items)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("took", time.Since(start)).
		Msg("chat completion")

	return ParseDecisions(resp.Choices[0].Message.Content)
}
