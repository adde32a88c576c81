package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubClient 构造不带真实连接的客户端,只走 Send 通道
func newHubClient(id, userID, roleKey string, hub *Hub) *Client {
	return NewClient(id, userID, roleKey, hub, nil)
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.GetClientCount() == want
	}, time.Second, 5*time.Millisecond)
}

// TestRegisterUnregister 测试客户端注册与注销
func TestRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newHubClient("c1", "user-001", "dept_head", hub)
	hub.Register <- client
	waitForCount(t, hub, 1)
	assert.True(t, hub.HasClient("c1"))
	assert.False(t, hub.HasClient("c2"))

	hub.Unregister <- client
	waitForCount(t, hub, 0)

	// Send 通道随注销关闭
	_, open := <-client.Send
	assert.False(t, open)
}

// TestBroadcastToRole 测试按审批角色定向推送
func TestBroadcastToRole(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	deptHead := newHubClient("c1", "user-001", "dept_head", hub)
	finance := newHubClient("c2", "user-002", "finance_manager", hub)
	hub.Register <- deptHead
	hub.Register <- finance
	waitForCount(t, hub, 2)

	hub.BroadcastToRole("dept_head", []byte(`{"kind":"approval_request"}`))

	select {
	case msg := <-deptHead.Send:
		assert.Contains(t, string(msg), "approval_request")
	case <-time.After(time.Second):
		t.Fatal("dept_head client did not receive message")
	}

	select {
	case msg := <-finance.Send:
		t.Fatalf("finance_manager should not receive role-targeted message, got %s", msg)
	default:
	}
}

// TestBroadcastToUser 测试按用户定向推送
func TestBroadcastToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newHubClient("c1", "user-001", "dept_head", hub)
	b := newHubClient("c2", "user-002", "dept_head", hub)
	hub.Register <- a
	hub.Register <- b
	waitForCount(t, hub, 2)

	hub.BroadcastToUser("user-002", []byte("hello"))

	select {
	case msg := <-b.Send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("target user did not receive message")
	}

	select {
	case <-a.Send:
		t.Fatal("other user should not receive message")
	default:
	}
}

// TestBroadcastAll 测试全量广播
func TestBroadcastAll(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := newHubClient("c1", "user-001", "dept_head", hub)
	b := newHubClient("c2", "user-002", "finance_manager", hub)
	hub.Register <- a
	hub.Register <- b
	waitForCount(t, hub, 2)

	hub.Broadcast <- []byte("ping")

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.Send:
			assert.Equal(t, "ping", string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", client.ID)
		}
	}
}

// TestSlowClientEvicted 测试发送缓冲打满后客户端被剔除
func TestSlowClientEvicted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newHubClient("c1", "user-001", "dept_head", hub)
	// 缩小缓冲,模拟消费停滞的连接
	slow.Send = make(chan []byte, 1)
	hub.Register <- slow
	waitForCount(t, hub, 1)

	hub.BroadcastToRole("dept_head", []byte("first"))
	hub.BroadcastToRole("dept_head", []byte("second"))

	waitForCount(t, hub, 0)
}
