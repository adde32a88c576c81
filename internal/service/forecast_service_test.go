package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLMClient 固定应答的大模型客户端
type stubLLMClient struct {
	response string
	err      error
	prompts  []string
}

func (c *stubLLMClient) Generate(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *stubLLMClient) Close() error { return nil }

// TestForecastBudget 测试预算预测的提示词组装与应答透传
func TestForecastBudget(t *testing.T) {
	stub := &stubLLMClient{response: "Total forecast: 1.2M"}
	svc := NewForecastService(stub, nil)

	resp, err := svc.ForecastBudget(context.Background(), &ForecastBudgetRequest{
		HistoricalSpendingData: "year,amount\n2024,900000\n2025,1000000",
		ContractObligations:    "datacenter lease through 2027",
	})
	require.NoError(t, err)
	assert.Equal(t, "Total forecast: 1.2M", resp.ForecastedBudget)

	// 输入数据进入提示词
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "2025,1000000")
	assert.Contains(t, stub.prompts[0], "datacenter lease through 2027")
}

// TestForecastBudgetValidation 测试预测输入校验与未配置场景
func TestForecastBudgetValidation(t *testing.T) {
	ctx := context.Background()

	// 客户端未配置
	svc := NewForecastService(nil, nil)
	_, err := svc.ForecastBudget(ctx, &ForecastBudgetRequest{HistoricalSpendingData: "x"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))

	// 历史数据缺失
	svc = NewForecastService(&stubLLMClient{response: "ok"}, nil)
	_, err = svc.ForecastBudget(ctx, &ForecastBudgetRequest{HistoricalSpendingData: "   "})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

// TestForecastBudgetUpstreamFailure 测试上游失败时细节不外泄
func TestForecastBudgetUpstreamFailure(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("rpc deadline exceeded: internal endpoint 10.0.0.5")}
	svc := NewForecastService(stub, nil)

	_, err := svc.ForecastBudget(context.Background(), &ForecastBudgetRequest{HistoricalSpendingData: "x"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "10.0.0.5")
	assert.Contains(t, err.Error(), "temporarily unavailable")
}

// TestCompareQuotes 测试报价比较与推荐段落切分
func TestCompareQuotes(t *testing.T) {
	stub := &stubLLMClient{response: "Dell is cheaper but HPE has better support.\nRecommendation: pick Dell for pure price."}
	svc := NewForecastService(stub, nil)

	resp, err := svc.CompareQuotes(context.Background(), &CompareQuotesRequest{
		Quotes: []Quote{
			{Vendor: "Dell", Description: "10x R760", Price: 95000, Terms: "net 30"},
			{Vendor: "HPE", Description: "10x DL380", Price: 99000, Terms: "net 60"},
		},
		Criteria: "total cost of ownership",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dell is cheaper but HPE has better support.", resp.Summary)
	assert.Equal(t, "pick Dell for pure price.", resp.Recommendation)

	// 全部报价与评价标准进入提示词
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "vendor=Dell")
	assert.Contains(t, stub.prompts[0], "vendor=HPE")
	assert.Contains(t, stub.prompts[0], "total cost of ownership")
}

// TestCompareQuotesValidation 测试报价数量校验
func TestCompareQuotesValidation(t *testing.T) {
	svc := NewForecastService(&stubLLMClient{response: "ok"}, nil)

	_, err := svc.CompareQuotes(context.Background(), &CompareQuotesRequest{
		Quotes: []Quote{{Vendor: "Dell", Description: "one", Price: 1}},
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

// TestSplitRecommendation 测试推荐标记缺失时整段作为摘要
func TestSplitRecommendation(t *testing.T) {
	summary, recommendation := splitRecommendation("no marker in this text")
	assert.Equal(t, "no marker in this text", summary)
	assert.Empty(t, recommendation)

	summary, recommendation = splitRecommendation("  summary text \nRecommendation:  go with vendor A  ")
	assert.Equal(t, "summary text", summary)
	assert.Equal(t, "go with vendor A", recommendation)

	// 标记在开头
	summary, recommendation = splitRecommendation("Recommendation: only this")
	assert.Empty(t, summary)
	assert.Equal(t, "only this", recommendation)
	assert.False(t, strings.Contains(recommendation, "Recommendation"))
}
