package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/mautops/budget-gin/internal/llm"
	"github.com/sirupsen/logrus"
)

// ForecastService 预测与比价服务接口
// 大模型是外部协作方,失败统一包装为通用错误回传调用方
type ForecastService interface {
	ForecastBudget(ctx context.Context, req *ForecastBudgetRequest) (*ForecastBudgetResponse, error)
	CompareQuotes(ctx context.Context, req *CompareQuotesRequest) (*CompareQuotesResponse, error)
}

// ForecastBudgetRequest 预算预测请求
// @Description 基于历史支出与合同义务预测下一年度预算
type ForecastBudgetRequest struct {
	HistoricalSpendingData string `json:"historical_spending_data" binding:"required"` // 历史支出,CSV 文本
	ContractObligations    string `json:"contract_obligations"`                        // 合同义务说明
}

// ForecastBudgetResponse 预算预测响应
type ForecastBudgetResponse struct {
	ForecastedBudget string `json:"forecasted_budget"` // 模型生成的预测文本
}

// Quote 供应商报价
type Quote struct {
	Vendor      string  `json:"vendor" binding:"required"`      // 供应商
	Description string  `json:"description" binding:"required"` // 报价内容
	Price       float64 `json:"price" binding:"required"`       // 价格
	Terms       string  `json:"terms"`                          // 付款/交付条款
}

// CompareQuotesRequest CAPEX 报价比较请求
// @Description 比较多份 CAPEX 报价并给出推荐
type CompareQuotesRequest struct {
	Quotes   []Quote `json:"quotes" binding:"required"` // 报价列表
	Criteria string  `json:"criteria"`                  // 评价标准
}

// CompareQuotesResponse 报价比较响应
type CompareQuotesResponse struct {
	Summary        string `json:"summary"`        // 比较摘要
	Recommendation string `json:"recommendation"` // 推荐结论
}

type forecastService struct {
	client llm.Client
	logger *logrus.Logger
}

// NewForecastService 创建预测与比价服务
func NewForecastService(client llm.Client, logger *logrus.Logger) ForecastService {
	if logger == nil {
		logger = logrus.New()
	}
	return &forecastService{client: client, logger: logger}
}

// ForecastBudget 预测下一年度预算
func (s *forecastService) ForecastBudget(ctx context.Context, req *ForecastBudgetRequest) (*ForecastBudgetResponse, error) {
	if s.client == nil {
		return nil, apperrors.Configuration("forecasting service is not configured")
	}
	if strings.TrimSpace(req.HistoricalSpendingData) == "" {
		return nil, apperrors.Validation("historical spending data is required")
	}

	var sb strings.Builder
	sb.WriteString("You are a corporate budgeting assistant. Based on the historical spending data below (CSV) ")
	sb.WriteString("and the listed contract obligations, forecast the next fiscal year budget. ")
	sb.WriteString("Give per-category estimates and a total, and briefly explain each driver.\n\n")
	sb.WriteString("Historical spending data:\n")
	sb.WriteString(req.HistoricalSpendingData)
	if req.ContractObligations != "" {
		sb.WriteString("\n\nContract obligations:\n")
		sb.WriteString(req.ContractObligations)
	}

	text, err := s.client.Generate(ctx, sb.String())
	if err != nil {
		// 网络/超时等底层细节不外泄,调用方得到通用失败
		s.logger.WithError(err).Error("budget forecast generation failed")
		return nil, fmt.Errorf("budget forecast is temporarily unavailable")
	}
	return &ForecastBudgetResponse{ForecastedBudget: text}, nil
}

// CompareQuotes 比较 CAPEX 报价并给出推荐
func (s *forecastService) CompareQuotes(ctx context.Context, req *CompareQuotesRequest) (*CompareQuotesResponse, error) {
	if s.client == nil {
		return nil, apperrors.Configuration("quote comparison service is not configured")
	}
	if len(req.Quotes) < 2 {
		return nil, apperrors.Validation("at least two quotes are required for comparison")
	}

	var sb strings.Builder
	sb.WriteString("You are a procurement analyst. Compare the following CAPEX vendor quotes")
	if req.Criteria != "" {
		sb.WriteString(" against these criteria: ")
		sb.WriteString(req.Criteria)
	}
	sb.WriteString(".\nFirst give a short comparison summary, then on a new line starting with ")
	sb.WriteString("\"Recommendation:\" state which vendor to pick and why.\n\n")
	for i, q := range req.Quotes {
		sb.WriteString(fmt.Sprintf("Quote %d: vendor=%s price=%.2f terms=%s\n%s\n\n", i+1, q.Vendor, q.Price, q.Terms, q.Description))
	}

	text, err := s.client.Generate(ctx, sb.String())
	if err != nil {
		s.logger.WithError(err).Error("quote comparison generation failed")
		return nil, fmt.Errorf("quote comparison is temporarily unavailable")
	}

	summary, recommendation := splitRecommendation(text)
	return &CompareQuotesResponse{Summary: summary, Recommendation: recommendation}, nil
}

// splitRecommendation 从模型输出中切出推荐段落
// 找不到标记时整段作为摘要返回
func splitRecommendation(text string) (string, string) {
	const marker = "Recommendation:"
	idx := strings.Index(text, marker)
	if idx < 0 {
		return strings.TrimSpace(text), ""
	}
	summary := strings.TrimSpace(text[:idx])
	recommendation := strings.TrimSpace(text[idx+len(marker):])
	return summary, recommendation
}
