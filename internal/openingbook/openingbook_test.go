package openingbook

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const startPosition = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w moves"

func TestParseQueryAll(t *testing.T) {
	body := "move:h2e2,score:1,rank:2,note:! (35-01),winrate:50.05|move:b2e2,score:??,rank:0,note:? (00-00),winrate:48.2\x00"
	got, err := ParseQueryAll(body)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Entry{Move: "h2e2", Score: 1, Rank: 2, Note: "! (35-01)", WinRate: 50.05}, got[0])
	assert.Equal(t, "b2e2", got[1].Move)
	assert.Zero(t, got[1].Score)

	for _, empty := range []string{"unknown\x00", "", "checkmate"} {
		got, err := ParseQueryAll(empty)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	_, err = ParseQueryAll("invalid board")
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = ParseQueryAll("score:1,rank:2")
	assert.ErrorIs(t, err, ErrMalformedAnswer)
}

func TestParseQueryScore(t *testing.T) {
	score, known, err := ParseQueryScore("eval:-35\x00")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, -35, score)

	_, known, err = ParseQueryScore("unknown")
	require.NoError(t, err)
	assert.False(t, known)

	_, _, err = ParseQueryScore("eval:abc")
	assert.ErrorIs(t, err, ErrMalformedAnswer)
}

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	dial := func(string) (net.Conn, error) { return ln.Dial() }
	return NewClient("http://book.test/chessdb.php", append([]Option{WithDial(dial)}, opts...)...)
}

func TestClientQueryAll(t *testing.T) {
	var gotAction, gotBoard string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotAction = string(ctx.QueryArgs().Peek("action"))
		gotBoard = string(ctx.QueryArgs().Peek("board"))
		ctx.SetBodyString("move:h2e2,score:1,rank:2,note:!,winrate:50.0\x00")
	})

	entries, err := c.QueryAll(context.Background(), startPosition)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "h2e2", entries[0].Move)
	assert.Equal(t, "queryall", gotAction)
	assert.Equal(t, startPosition, gotBoard)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString("eval:12")
	}, WithRetry(3))

	score, known, err := c.QueryScore(context.Background(), startPosition)
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, 12, score)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
	}, WithRetry(3))

	_, err := c.QueryAll(context.Background(), startPosition)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientHonoursContext(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
	}, WithRetry(5), WithTimeout(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.QueryAll(ctx, startPosition)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, errors.Is(err, ErrMalformedAnswer))
}

func TestRequestURI(t *testing.T) {
	c := NewClient("http://book.test/api?key=1")
	assert.Equal(t, "http://book.test/api?key=1&action=queryscore&board=a+b", c.requestURI("queryscore", "a b"))
}
