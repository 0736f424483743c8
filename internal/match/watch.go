package match

import (
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

const watchBuffer = 8

// Watch subscribes to state changes of a match. The channel first carries
// the current state and is closed by cancel or when the match is removed.
func (m *Manager) Watch(id string) (<-chan xiangqidto.MatchState, func(), error) {
	mt, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan xiangqidto.MatchState, watchBuffer)

	mt.mu.Lock()
	sub := mt.nextSub
	mt.nextSub++
	mt.watchers[sub] = ch
	ch <- stateOf(mt)
	mt.mu.Unlock()

	cancel := func() {
		mt.mu.Lock()
		defer mt.mu.Unlock()
		if c, ok := mt.watchers[sub]; ok {
			close(c)
			delete(mt.watchers, sub)
		}
	}
	return ch, cancel, nil
}
