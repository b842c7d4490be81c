package broker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

var upgrader = websocket.Upgrader{
	Subprotocols: []string{"comms"},
}

// newFakeCoordinator 启动一个假 coordinator，script 在升级后的连接上执行
func newFakeCoordinator(t *testing.T, script func(sock *websocket.Conn)) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/connect", func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer sock.Close()
		script(sock)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestConnection(t *testing.T, srv *httptest.Server) *Connection {
	t.Helper()

	realm := types.Realm{
		Protocol:   "v2",
		Hostname:   srv.URL,
		ServerName: "zeus",
	}
	conn := New(realm, Options{Config: config.DefaultTransportConfig()})
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, sock *websocket.Conn) Frame {
	t.Helper()
	_ = sock.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := sock.ReadMessage()
	require.NoError(t, err)
	frame, err := Decode(data)
	require.NoError(t, err)
	return frame
}

func writeFrame(t *testing.T, sock *websocket.Conn, f Frame) {
	t.Helper()
	require.NoError(t, sock.WriteMessage(websocket.BinaryMessage, Encode(f)))
}

func holdOpen(sock *websocket.Conn) {
	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			return
		}
	}
}

// ============================================================================
//                              别名注册
// ============================================================================

func TestConnectRegistersAlias(t *testing.T) {
	connects := make(chan Connect, 1)

	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 42})

		frame := readFrame(t, sock)
		reg, ok := frame.(Connect)
		require.True(t, ok, "期待 CONNECT 帧，收到 %T", frame)
		connects <- reg

		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)
	require.NoError(t, conn.Connect(context.Background()))

	// CONNECT 以 from=别名、to=0 注册
	reg := <-connects
	assert.Equal(t, uint64(42), reg.From)
	assert.Equal(t, uint64(0), reg.To)
	assert.Equal(t, uint64(42), conn.Alias())
	assert.Equal(t, types.ConnStateOpen, conn.State())
}

func TestConnectResolvesOnlyAfterWelcomeAndConnect(t *testing.T) {
	release := make(chan struct{})
	sawConnect := make(chan struct{})

	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		// socket 已建立但先不下发 WELCOME
		<-release
		writeFrame(t, sock, Welcome{Alias: 7})
		readFrame(t, sock)
		close(sawConnect)
		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)

	done := make(chan error, 1)
	go func() { done <- conn.Connect(context.Background()) }()

	// socket 建立不等于已连接：WELCOME 未到时 Connect 不得返回
	select {
	case err := <-done:
		t.Fatalf("Connect 在 WELCOME 之前返回了: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Connect 未返回")
	}
	<-sawConnect
}

// ============================================================================
//                              发送约束
// ============================================================================

func TestSendBeforeAssigned(t *testing.T) {
	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)

	// 未连接、未分配别名：显式报错而非静默丢弃
	assert.ErrorIs(t, conn.SendTopic("chat", []byte("x")), transport.ErrNotAssigned)
}

func TestSendAfterAssigned(t *testing.T) {
	frames := make(chan Frame, 2)

	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 3})
		for {
			_ = sock.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, data, err := sock.ReadMessage()
			if err != nil {
				return
			}
			if frame, err := Decode(data); err == nil {
				frames <- frame
			}
		}
	})

	conn := newTestConnection(t, srv)
	require.NoError(t, conn.Connect(context.Background()))

	<-frames // CONNECT 注册帧

	require.NoError(t, conn.SendTopic("chat", []byte("payload")))

	select {
	case frame := <-frames:
		fw, ok := frame.(TopicFW)
		require.True(t, ok, "期待 TOPIC_FW 帧，收到 %T", frame)
		assert.Equal(t, []byte("payload"), fw.Raw)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到话题帧")
	}
}

func TestSendAfterClose(t *testing.T) {
	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 3})
		readFrame(t, sock)
		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)
	require.NoError(t, conn.Connect(context.Background()))
	require.NoError(t, conn.Close())

	assert.ErrorIs(t, conn.SendTopic("chat", []byte("x")), transport.ErrNotAssigned)
	assert.ErrorIs(t, conn.SetTopics([]string{"chat"}), transport.ErrTransportClosed)
}

// ============================================================================
//                              入站转发
// ============================================================================

func TestLegacyForwarding(t *testing.T) {
	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 9})
		readFrame(t, sock)

		writeFrame(t, sock, TopicFW{Raw: []byte("fw")})
		writeFrame(t, sock, TopicIdentityFW{Raw: []byte("idfw")})
		writeFrame(t, sock, Ping{Raw: []byte("ping")})
		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)

	topics := make(chan types.TopicData, 3)
	conn.OnTopic(func(d types.TopicData) { topics <- d })

	require.NoError(t, conn.Connect(context.Background()))

	// 三种入站都统一作为 LEGACY 话题原样转发
	want := [][]byte{[]byte("fw"), []byte("idfw"), []byte("ping")}
	for _, payload := range want {
		select {
		case d := <-topics:
			assert.Equal(t, LegacyTopic, d.Topic)
			assert.Equal(t, payload, d.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("未收到转发消息 %q", payload)
		}
	}
}

func TestUnknownKindDropped(t *testing.T) {
	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 9})
		readFrame(t, sock)

		// 未知种类：丢弃而非致命
		require.NoError(t, sock.WriteMessage(websocket.BinaryMessage, []byte{0x63}))
		writeFrame(t, sock, TopicFW{Raw: []byte("after")})
		holdOpen(sock)
	})

	conn := newTestConnection(t, srv)

	topics := make(chan types.TopicData, 1)
	conn.OnTopic(func(d types.TopicData) { topics <- d })

	require.NoError(t, conn.Connect(context.Background()))

	select {
	case d := <-topics:
		assert.Equal(t, []byte("after"), d.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("未知帧之后的正常帧未送达")
	}
	assert.Equal(t, types.ConnStateOpen, conn.State())
}

// ============================================================================
//                              拆除
// ============================================================================

func TestDisconnectNotifiedOnce(t *testing.T) {
	srv := newFakeCoordinator(t, func(sock *websocket.Conn) {
		writeFrame(t, sock, Welcome{Alias: 1})
		readFrame(t, sock)
		// 服务端立即断开
		_ = sock.Close()
	})

	conn := newTestConnection(t, srv)

	var disconnects atomic.Int32
	conn.OnDisconnect(func(error) { disconnects.Add(1) })

	require.NoError(t, conn.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return conn.State() == types.ConnStateClosed
	}, 2*time.Second, 10*time.Millisecond)

	// 客户端再主动关闭：通知仍恰好一次
	_ = conn.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), disconnects.Load())
}
