// Package xiangqipresenter formats match DTOs as text and hands them to a
// message sink.
package xiangqipresenter

import (
	"strings"

	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

// Presenter delivers formatted messages without coupling to the command layer.
type Presenter struct {
	sendMessage func(room, message string) error
	formatter   *Formatter
}

func NewPresenter(formatter *Formatter, sendMessage func(room, message string) error) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		formatter:   formatter,
	}
}

func (p *Presenter) Formatter() *Formatter {
	if p == nil {
		return nil
	}
	return p.formatter
}

// Send delivers a non-empty message.
func (p *Presenter) Send(room, message string) error {
	if p == nil || p.sendMessage == nil {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, message)
}

// Board delivers message followed by the rendered state.
func (p *Presenter) Board(room, message string, state *xiangqidto.MatchState) error {
	if p == nil {
		return nil
	}
	if err := p.Send(room, message); err != nil {
		return err
	}
	if state != nil {
		return p.Send(room, p.formatter.State(state))
	}
	return nil
}
