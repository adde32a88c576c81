package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client 生成式模型客户端
// 核心只依赖这个请求/响应契约,不关心模型内部行为
type Client interface {
	// Generate 执行单轮文本生成
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// geminiClient 基于 Google Gemini 的实现
type geminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Generate 执行单轮文本生成,超时 60 秒
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return sb.String(), nil
}

// Close 释放底层连接
func (c *geminiClient) Close() error {
	return c.client.Close()
}
