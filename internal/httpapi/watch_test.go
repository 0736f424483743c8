package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/xiangqi-bot/internal/match"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

func startServer(t *testing.T, mgr *match.Manager) string {
	t.Helper()
	srv := New(mgr, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.App().Listener(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return ln.Addr().String()
}

func dialWatch(t *testing.T, addr, id string) *fws.Conn {
	t.Helper()
	conn, resp, err := fws.DefaultDialer.Dial("ws://"+addr+"/ws/matches/"+id, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *fws.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readState(t *testing.T, conn *fws.Conn) xiangqidto.MatchState {
	t.Helper()
	msg := readFrame(t, conn)
	require.Equal(t, messageState, msg.Type, string(msg.Payload))
	var st xiangqidto.MatchState
	require.NoError(t, json.Unmarshal(msg.Payload, &st))
	return st
}

func readError(t *testing.T, conn *fws.Conn) xiangqidto.DomainError {
	t.Helper()
	msg := readFrame(t, conn)
	require.Equal(t, messageError, msg.Type, string(msg.Payload))
	var de xiangqidto.DomainError
	require.NoError(t, json.Unmarshal(msg.Payload, &de))
	return de
}

func TestWatchStreamsMatch(t *testing.T) {
	mgr := match.NewManager(match.Options{})
	ctx := context.Background()
	st, err := mgr.Create(ctx, "red", "blue")
	require.NoError(t, err)
	addr := startServer(t, mgr)
	conn := dialWatch(t, addr, st.ID)

	first := readState(t, conn)
	assert.Equal(t, 0, first.Ply)
	assert.Equal(t, "red", first.White)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: messageMove, Move: "h2e2"}))
	second := readState(t, conn)
	assert.Equal(t, 1, second.Ply)
	assert.Equal(t, "h2e2", second.LastMove)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: messageMove, Move: "xx"}))
	assert.Equal(t, xiangqidto.CodeBadInput, readError(t, conn).Code)

	require.NoError(t, conn.WriteJSON(wsMessage{Type: "hello"}))
	assert.Equal(t, xiangqidto.CodeBadInput, readError(t, conn).Code)

	// moves from other clients reach this watcher too
	_, err = mgr.Play(ctx, st.ID, "h9g7")
	require.NoError(t, err)
	assert.Equal(t, 2, readState(t, conn).Ply)

	require.True(t, mgr.Remove(ctx, st.ID))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWatchUnknownMatch(t *testing.T) {
	addr := startServer(t, match.NewManager(match.Options{}))
	conn := dialWatch(t, addr, "nope")
	assert.Equal(t, xiangqidto.CodeNotFound, readError(t, conn).Code)
}
