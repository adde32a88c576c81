package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/budget-gin/internal/service"
)

// ForecastController 预算预测与比价控制器
type ForecastController struct {
	forecastSvc service.ForecastService
}

// NewForecastController 创建预测控制器
func NewForecastController(forecastSvc service.ForecastService) *ForecastController {
	return &ForecastController{forecastSvc: forecastSvc}
}

// ForecastBudget 预算预测
// @Summary      预测下一年度预算
// @Description  基于历史支出与合同义务,由大模型生成预测
// @Tags         预测
// @Accept       json
// @Produce      json
// @Param        request body service.ForecastBudgetRequest true "预测输入"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /forecast/budget [post]
// @Security     BearerAuth
func (c *ForecastController) ForecastBudget(ctx *gin.Context) {
	var req service.ForecastBudgetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	resp, err := c.forecastSvc.ForecastBudget(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "forecast budget")
		return
	}

	Success(ctx, resp)
}

// CompareQuotes 报价比较
// @Summary      比较 CAPEX 报价
// @Description  由大模型比较多份报价并给出推荐
// @Tags         预测
// @Accept       json
// @Produce      json
// @Param        request body service.CompareQuotesRequest true "报价列表"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /forecast/quotes [post]
// @Security     BearerAuth
func (c *ForecastController) CompareQuotes(ctx *gin.Context) {
	var req service.CompareQuotesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	resp, err := c.forecastSvc.CompareQuotes(ctx.Request.Context(), &req)
	if err != nil {
		HandleServiceError(ctx, err, "compare quotes")
		return
	}

	Success(ctx, resp)
}
