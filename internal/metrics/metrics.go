package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 预算表创建数
	sheetsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_sheets_created_total",
			Help: "Total number of budget sheets created",
		},
		[]string{"type"}, // CAPEX, OPEX
	)

	// 预算表提交数
	sheetsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_sheets_submitted_total",
			Help: "Total number of budget sheets submitted for approval",
		},
	)

	// 审批动作数
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Total number of approval actions",
		},
		[]string{"action"}, // approve, reject
	)

	// 各状态的预算表数量
	sheetsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "budget_sheets_by_status",
			Help: "Number of budget sheets by status",
		},
		[]string{"status"},
	)

	// 通知投递失败数
	notificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed notification deliveries",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(sheetsCreatedTotal)
	prometheus.MustRegister(sheetsSubmittedTotal)
	prometheus.MustRegister(approvalsTotal)
	prometheus.MustRegister(sheetsByStatus)
	prometheus.MustRegister(notificationFailuresTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)

	// 注册 Go 运行时指标（只注册一次,已注册则忽略错误）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSheetCreated 记录预算表创建
func RecordSheetCreated(sheetType string) {
	sheetsCreatedTotal.WithLabelValues(sheetType).Inc()
}

// RecordSheetSubmitted 记录预算表提交
func RecordSheetSubmitted() {
	sheetsSubmittedTotal.Inc()
}

// RecordApproval 记录审批动作
func RecordApproval(action string) {
	approvalsTotal.WithLabelValues(action).Inc()
}

// RecordNotificationFailure 记录通知投递失败
func RecordNotificationFailure() {
	notificationFailuresTotal.Inc()
}

// UpdateSheetsByStatus 更新各状态的预算表数量
func UpdateSheetsByStatus(db *gorm.DB) {
	type row struct {
		Status string
		Count  float64
	}
	var rows []row
	if err := db.Table("budget_sheets").
		Select("status, count(*) as count").
		Group("status").Scan(&rows).Error; err != nil {
		return
	}
	for _, r := range rows {
		sheetsByStatus.WithLabelValues(r.Status).Set(r.Count)
	}
}

// UpdateDatabaseConnections 更新数据库连接池指标
func UpdateDatabaseConnections(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))
}
