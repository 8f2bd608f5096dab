package usecases

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

func TestWindowMemory_RenderOrder(t *testing.T) {
	m := NewWindowMemory(6)
	m.Record("Q1", "A1")
	m.Record("Q2", "A2")

	assert.Equal(t, []entities.Message{
		{Role: entities.RoleHuman, Text: "Q1"},
		{Role: entities.RoleAI, Text: "A1"},
		{Role: entities.RoleHuman, Text: "Q2"},
		{Role: entities.RoleAI, Text: "A2"},
	}, m.Render())
}

func TestWindowMemory_EvictsOldest(t *testing.T) {
	const k = 3
	m := NewWindowMemory(k)
	for i := 0; i <= k; i++ {
		m.Record(fmt.Sprintf("Q%d", i), fmt.Sprintf("A%d", i))
		assert.LessOrEqual(t, m.Len(), k)
	}

	turns := m.Turns()
	require.Len(t, turns, k)
	assert.Equal(t, "Q1", turns[0].Question)
	assert.Equal(t, "Q3", turns[k-1].Question)
	for _, msg := range m.Render() {
		assert.NotEqual(t, "Q0", msg.Text)
		assert.NotEqual(t, "A0", msg.Text)
	}
}

func TestWindowMemory_Reset(t *testing.T) {
	m := NewWindowMemory(2)
	m.Record("Q", "A")
	m.Reset()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Render())
}

func TestWindowMemory_NonPositiveSize(t *testing.T) {
	m := NewWindowMemory(0)
	m.Record("Q1", "A1")
	m.Record("Q2", "A2")

	assert.Equal(t, 1, m.Size())
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "Q2", m.Turns()[0].Question)
}

func TestWindowMemory_TurnsIsCopy(t *testing.T) {
	m := NewWindowMemory(2)
	m.Record("Q", "A")

	turns := m.Turns()
	turns[0].Question = "changed"

	assert.Equal(t, "Q", m.Turns()[0].Question)
}
