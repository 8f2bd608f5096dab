package usecases

import (
	"sync"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

// DefaultMemoryWindow is the number of turns kept for prompt history.
const DefaultMemoryWindow = 6

// WindowMemory keeps the last k question/answer turns. It is separate from
// the visible transcript and only feeds the prompt's history section.
type WindowMemory struct {
	mu    sync.Mutex
	k     int
	turns []entities.Turn
}

// NewWindowMemory creates an empty window of k turns. k <= 0 becomes 1.
func NewWindowMemory(k int) *WindowMemory {
	if k <= 0 {
		k = 1
	}
	return &WindowMemory{k: k}
}

// Record appends a turn, evicting the oldest once the window is full.
func (m *WindowMemory) Record(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns = append(m.turns, entities.Turn{Question: question, Answer: answer})
	if over := len(m.turns) - m.k; over > 0 {
		m.turns = append([]entities.Turn(nil), m.turns[over:]...)
	}
}

// Render returns the window as alternating human/ai messages, oldest first.
func (m *WindowMemory) Render() []entities.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]entities.Message, 0, 2*len(m.turns))
	for _, t := range m.turns {
		msgs = append(msgs,
			entities.Message{Role: entities.RoleHuman, Text: t.Question},
			entities.Message{Role: entities.RoleAI, Text: t.Answer},
		)
	}
	return msgs
}

// Turns returns a copy of the stored turns.
func (m *WindowMemory) Turns() []entities.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.Turn(nil), m.turns...)
}

func (m *WindowMemory) Reset() {
	m.mu.Lock()
	m.turns = nil
	m.mu.Unlock()
}

func (m *WindowMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Size returns the window capacity k.
func (m *WindowMemory) Size() int {
	return m.k
}
