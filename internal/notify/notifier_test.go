package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWebhookDelivery 测试通知以 JSON POST 投递到 Webhook
func TestWebhookDelivery(t *testing.T) {
	var mu sync.Mutex
	var received []Notification

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var n Notification
		require.NoError(t, json.Unmarshal(body, &n))

		mu.Lock()
		received = append(received, n)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, 2, 16, nil)
	defer notifier.Close()

	notifier.Notify(&Notification{
		Kind:         KindApprovalRequest,
		RoleKey:      "dept_head",
		SheetID:      "sheet-001",
		SheetType:    "CAPEX",
		Organization: "Acme Manufacturing",
		Department:   "Information Technology",
		Year:         2026,
		TotalValue:   3000,
		Level:        1,
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, KindApprovalRequest, received[0].Kind)
	assert.Equal(t, "dept_head", received[0].RoleKey)
	assert.Equal(t, "sheet-001", received[0].SheetID)
	assert.Equal(t, 3000.0, received[0].TotalValue)
}

// TestNotifyNeverBlocks 测试队列满时丢弃而不阻塞调用方
func TestNotifyNeverBlocks(t *testing.T) {
	// 用一个挂起的 Webhook 占住唯一 worker,后续通知堆积在队列里
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	notifier := NewWebhookNotifier(server.URL, 1, 1, nil)
	defer notifier.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// 远超队列容量
		for i := 0; i < 50; i++ {
			notifier.Notify(&Notification{Kind: KindApproved, SheetID: "sheet-001"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

// TestWebhookErrorStatusLogged 测试端点报错不影响调用方
func TestWebhookErrorStatusLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, 1, 16, nil)
	defer notifier.Close()

	// 投递失败只记日志,这里只要不 panic 即可
	notifier.Notify(&Notification{Kind: KindRejected, SheetID: "sheet-001"})
	time.Sleep(100 * time.Millisecond)
}

// TestNopNotifier 测试空实现安全可用
func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	n.Notify(&Notification{Kind: KindApproved, SheetID: "sheet-001"})
	n.Close()
}
