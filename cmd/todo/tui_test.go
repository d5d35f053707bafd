package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/example/todo-app/client"
	domain "github.com/example/todo-app/domain/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyMsg(t *testing.T, m modelTUI, msg tea.Msg) modelTUI {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(modelTUI)
	require.True(t, ok)
	return nm
}

func TestModelTUI_ListAndCreate(t *testing.T) {
	m := newModelTUI(client.New("http://localhost:0"), time.Second)

	m = applyMsg(t, m, resultMsg{Op: client.OpList, Todos: []domain.Todo{
		{ID: 2, Title: "b"},
		{ID: 1, Title: "a"},
	}})
	assert.Len(t, m.list.Items(), 2)
	sel, ok := m.board.Selected()
	require.True(t, ok)
	assert.Equal(t, domain.ID(2), sel.ID)

	m = applyMsg(t, m, resultMsg{Op: client.OpCreate, Todo: domain.Todo{ID: 3, Title: "c"}})
	assert.Len(t, m.list.Items(), 3)
	assert.Equal(t, 0, m.list.Index())
	sel, _ = m.board.Selected()
	assert.Equal(t, domain.ID(3), sel.ID)
}

func TestModelTUI_FailureShowsConnectionError(t *testing.T) {
	m := newModelTUI(client.New("http://localhost:0"), time.Second)
	m = applyMsg(t, m, resultMsg{Op: client.OpList, Todos: []domain.Todo{{ID: 1, Title: "a"}}})

	m = applyMsg(t, m, resultMsg{Op: client.OpDelete, Todo: domain.Todo{ID: 1}, Err: errors.New("dial tcp")})
	assert.Len(t, m.list.Items(), 1)
	assert.Contains(t, m.View(), client.ConnectionError)
}

func TestModelTUI_EmptyTitleRejected(t *testing.T) {
	m := newModelTUI(client.New("http://localhost:0"), time.Second)

	m = applyMsg(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.Equal(t, modeAdd, m.mode)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(modelTUI)
	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Title cannot be empty", m.inErr)
}

func TestExplain(t *testing.T) {
	err := explain(&client.APIError{Status: 404, Message: "Todo not found", Detail: "todo with id 4 not found"})
	assert.EqualError(t, err, "Todo not found (todo with id 4 not found)")

	err = explain(fmt.Errorf("%w: dial tcp", client.ErrUnreachable))
	assert.EqualError(t, err, client.ConnectionError)
}

func TestParseBoolFlag(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "YES": true, "0": false, "false": false} {
		got, err := parseBoolFlag(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseBoolFlag("maybe")
	assert.Error(t, err)
}
