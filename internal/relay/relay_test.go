package relay

import (
    "context"
    "errors"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
)

func newTestRelays(t *testing.T) (*Relay, *Relay) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(mr.Close)
    rdbA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    rdbB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdbA.Close(); _ = rdbB.Close() })
    return New(rdbA, "xq:test", "node-a", nil), New(rdbB, "xq:test:", "node-b", nil)
}

func serve(t *testing.T, r *Relay, h Handler) {
    t.Helper()
    ctx, cancel := context.WithCancel(context.Background())
    sub, err := r.Subscribe(ctx)
    if err != nil { t.Fatalf("Subscribe: %v", err) }
    done := make(chan struct{})
    go func() { defer close(done); _ = sub.Serve(ctx, h) }()
    t.Cleanup(func() { cancel(); <-done; _ = sub.Close() })
}

func TestPublishReachesOtherNode(t *testing.T) {
    a, b := newTestRelays(t)
    got := make(chan Envelope, 4)
    serve(t, b, func(_ context.Context, env Envelope) error { got <- env; return nil })

    ctx := context.Background()
    if err := a.Publish(ctx, Envelope{MatchID: "m1", Ply: 1, Side: "white", Move: "h2e2"}); err != nil {
        t.Fatalf("Publish: %v", err)
    }
    select {
    case env := <-got:
        if env.MatchID != "m1" || env.Move != "h2e2" || env.Origin != "node-a" || env.SentAt.IsZero() {
            t.Fatalf("unexpected envelope: %+v", env)
        }
    case <-time.After(2 * time.Second):
        t.Fatalf("envelope not delivered")
    }
}

func TestOwnEnvelopesSkippedAndErrorsTolerated(t *testing.T) {
    a, b := newTestRelays(t)
    got := make(chan Envelope, 4)
    serve(t, b, func(_ context.Context, env Envelope) error {
        got <- env
        if env.Move == "bad" { return errors.New("illegal move") }
        return nil
    })

    ctx := context.Background()
    if err := b.Publish(ctx, Envelope{MatchID: "m1", Ply: 1, Move: "own"}); err != nil { t.Fatalf("Publish own: %v", err) }
    if err := a.Publish(ctx, Envelope{MatchID: "m1", Ply: 1, Move: "bad"}); err != nil { t.Fatalf("Publish bad: %v", err) }
    if err := a.Publish(ctx, Envelope{MatchID: "m2", Ply: 1, Move: "h2e2"}); err != nil { t.Fatalf("Publish good: %v", err) }

    var moves []string
    for len(moves) < 2 {
        select {
        case env := <-got:
            moves = append(moves, env.Move)
        case <-time.After(2 * time.Second):
            t.Fatalf("delivered %v, want bad and h2e2", moves)
        }
    }
    if moves[0] != "bad" || moves[1] != "h2e2" {
        t.Fatalf("delivered %v", moves)
    }
}

func TestPublishValidates(t *testing.T) {
    a, _ := newTestRelays(t)
    ctx := context.Background()
    for _, env := range []Envelope{{Move: "h2e2", Ply: 1}, {MatchID: "m1", Ply: 1}, {MatchID: "m1", Move: "h2e2"}} {
        if err := a.Publish(ctx, env); !errors.Is(err, ErrInvalidEnvelope) {
            t.Fatalf("Publish(%+v) = %v", env, err)
        }
    }
}

func TestChannelAndOrigin(t *testing.T) {
    a, b := newTestRelays(t)
    if a.Channel("m1") != "xq:test:m1" || b.Channel(" m1 ") != "xq:test:m1" {
        t.Fatalf("channels: %q %q", a.Channel("m1"), b.Channel(" m1 "))
    }
    if r := New(nil, "p", "", nil); r.Origin() == "" {
        t.Fatalf("expected generated origin")
    }
}
