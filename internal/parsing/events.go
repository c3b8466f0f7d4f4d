package parsing

import (
	"time"

	"github.com/qyliu/paperdeck/internal/document"
)

// Event is one stage transition of a parse, pushed to subscribers.
type Event struct {
	ParseID string              `json:"parseId"`
	Stage   document.ParseStage `json:"stage"`
	Message string              `json:"message"`
	At      time.Time           `json:"at"`
}

// Subscribe returns a channel of stage transitions for the given parse and
// a cancel func. The channel closes after a terminal stage. Slow consumers
// miss events rather than block the pipeline.
func (m *Manager) Subscribe(parseID string) (<-chan Event, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[parseID]; !ok {
		return nil, nil, ErrUnknownParse
	}
	ch := make(chan Event, 8)
	m.subs[parseID] = append(m.subs[parseID], ch)
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[parseID]
		for i, c := range subs {
			if c == ch {
				m.subs[parseID] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel, nil
}

// publish fans an event out to subscribers, dropping it for full channels.
// Terminal events close the subscriptions.
func (m *Manager) publish(parseID string, stage document.ParseStage, message string) {
	ev := Event{ParseID: parseID, Stage: stage, Message: message, At: time.Now()}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[parseID] {
		select {
		case ch <- ev:
		default:
		}
	}
	if stage.Terminal() {
		for _, ch := range m.subs[parseID] {
			close(ch)
		}
		delete(m.subs, parseID)
	}
}
