package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mautops/budget-gin/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Kind 通知类型
type Kind string

const (
	KindApprovalRequest Kind = "approval_request" // 预算表进入新审批层级
	KindApproved        Kind = "approved"         // 审批链走完,已批准
	KindRejected        Kind = "rejected"         // 任一层级拒绝
)

// Notification 审批通知载荷
// 组织/部门传已解析的名称而非原始 ID
type Notification struct {
	Kind         Kind    `json:"kind"`
	RoleKey      string  `json:"role_key,omitempty"`  // 目标审批角色
	Recipient    string  `json:"recipient,omitempty"` // 目标用户(拒绝时通知提交人)
	SheetID      string  `json:"sheet_id"`
	SheetType    string  `json:"sheet_type"`
	Organization string  `json:"organization"`
	Department   string  `json:"department"`
	Year         int     `json:"year"`
	TotalValue   float64 `json:"total_value,omitempty"`
	Level        int     `json:"level,omitempty"`
}

// Notifier 通知网关
// 投递相对状态迁移是 fire-and-forget:迁移已提交,投递失败只记日志
type Notifier interface {
	Notify(n *Notification)
	Close()
}

// webhookNotifier 基于 Webhook 的通知网关实现
// worker 池 + 有界队列,队列满时丢弃并记日志,绝不阻塞调用方
type webhookNotifier struct {
	url        string
	httpClient *http.Client
	queue      chan *Notification
	stop       chan struct{}
	logger     *logrus.Logger
}

// NewWebhookNotifier 创建 Webhook 通知网关
func NewWebhookNotifier(url string, workers, queueSize int, logger *logrus.Logger) Notifier {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1000
	}
	if logger == nil {
		logger = logrus.New()
	}

	n := &webhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan *Notification, queueSize),
		stop:       make(chan struct{}),
		logger:     logger,
	}
	for i := 0; i < workers; i++ {
		go n.worker()
	}
	return n
}

// Notify 入队通知,队列满时丢弃
func (w *webhookNotifier) Notify(n *Notification) {
	select {
	case w.queue <- n:
	default:
		metrics.RecordNotificationFailure()
		w.logger.WithFields(logrus.Fields{
			"kind":     n.Kind,
			"sheet_id": n.SheetID,
		}).Warn("notification queue full, dropping notification")
	}
}

// Close 停止所有 worker
func (w *webhookNotifier) Close() {
	close(w.stop)
}

// worker 通知投递 worker
func (w *webhookNotifier) worker() {
	for {
		select {
		case n := <-w.queue:
			w.deliver(n)
		case <-w.stop:
			return
		}
	}
}

// deliver 投递单条通知,失败只记日志不重试
func (w *webhookNotifier) deliver(n *Notification) {
	if w.url == "" {
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		w.logger.WithError(err).Error("failed to marshal notification")
		return
	}

	resp, err := w.httpClient.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		metrics.RecordNotificationFailure()
		w.logger.WithError(err).WithFields(logrus.Fields{
			"kind":     n.Kind,
			"sheet_id": n.SheetID,
		}).Warn("failed to deliver notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.RecordNotificationFailure()
		w.logger.WithFields(logrus.Fields{
			"kind":     n.Kind,
			"sheet_id": n.SheetID,
			"status":   resp.StatusCode,
		}).Warn("notification endpoint returned error status")
	}
}

// NopNotifier 空实现,用于未配置 Webhook 的环境与测试
type NopNotifier struct{}

// Notify 丢弃通知
func (NopNotifier) Notify(*Notification) {}

// Close 无资源可释放
func (NopNotifier) Close() {}
