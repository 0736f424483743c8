package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/park285/xiangqi-bot/internal/adapter/xiangqipresenter"
	"github.com/park285/xiangqi-bot/internal/match"
)

const consoleRoom = "console"

// console runs line commands against the match manager. current is the
// selected match ID.
type console struct {
	mgr       *match.Manager
	presenter *xiangqipresenter.Presenter
	current   string
}

func (c *console) send(msg string) { _ = c.presenter.Send(consoleRoom, msg) }

func (c *console) fail(err error, input string) {
	c.send(c.presenter.Formatter().Error(match.DomainError(err), input))
}

// handle runs one command line. It returns false on quit.
func (c *console) handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	f := c.presenter.Formatter()
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "quit", "exit":
		return false
	case "help":
		c.send(f.Help())
	case "list":
		c.send(f.List(c.mgr.List(ctx)))
	case "new":
		white, black := "", ""
		if len(args) > 0 {
			white = args[0]
		}
		if len(args) > 1 {
			black = args[1]
		}
		st, err := c.mgr.Create(ctx, white, black)
		if err != nil {
			c.fail(err, "")
			return true
		}
		c.current = st.ID
		_ = c.presenter.Board(consoleRoom, f.Created(st), st)
	case "use":
		if len(args) != 1 {
			c.send(f.Unknown(line))
			return true
		}
		st, err := c.mgr.State(args[0])
		if err != nil {
			c.fail(err, args[0])
			return true
		}
		c.current = st.ID
		_ = c.presenter.Board(consoleRoom, "", st)
	default:
		if c.current == "" {
			if isMatchCommand(cmd) {
				c.send(f.NoMatch())
			} else {
				c.send(f.Unknown(cmd))
			}
			return true
		}
		c.matchCommand(ctx, cmd, args)
	}
	return true
}

func isMatchCommand(cmd string) bool {
	switch cmd {
	case "play", "undo", "resign", "show", "flip", "book", "score":
		return true
	}
	return false
}

func (c *console) matchCommand(ctx context.Context, cmd string, args []string) {
	f := c.presenter.Formatter()
	switch cmd {
	case "play":
		if len(args) != 1 {
			c.send(f.Unknown(cmd))
			return
		}
		st, err := c.mgr.Play(ctx, c.current, args[0])
		if err != nil {
			c.fail(err, args[0])
			return
		}
		_ = c.presenter.Board(consoleRoom, f.Moved(st), st)
	case "undo":
		st, move, err := c.mgr.Undo(ctx, c.current)
		if err != nil {
			c.fail(err, "")
			return
		}
		_ = c.presenter.Board(consoleRoom, f.Undone(move), st)
	case "resign":
		st, err := c.mgr.Resign(ctx, c.current)
		if err != nil {
			c.fail(err, "")
			return
		}
		_ = c.presenter.Board(consoleRoom, f.Resigned(st), st)
	case "flip":
		st, err := c.mgr.Flip(c.current)
		if err != nil {
			c.fail(err, "")
			return
		}
		_ = c.presenter.Board(consoleRoom, "", st)
	case "show":
		if len(args) == 0 {
			st, err := c.mgr.State(c.current)
			if err != nil {
				c.fail(err, c.current)
				return
			}
			_ = c.presenter.Board(consoleRoom, "", st)
			return
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			c.send(f.Error(match.DomainError(match.ErrInvalidArgs), args[0]))
			return
		}
		h, err := c.mgr.Browse(c.current, i)
		if err != nil {
			c.fail(err, args[0])
			return
		}
		c.send(f.History(h))
	case "book":
		res, err := c.mgr.Book(ctx, c.current)
		if err != nil {
			c.fail(err, "")
			return
		}
		c.send(f.Book(res))
	case "score":
		i := -1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				c.send(f.Error(match.DomainError(match.ErrInvalidArgs), args[0]))
				return
			}
			i = n
		}
		res, err := c.mgr.Score(ctx, c.current, i)
		if err != nil {
			c.fail(err, "")
			return
		}
		c.send(f.Score(res))
	default:
		c.send(f.Unknown(cmd))
	}
}
