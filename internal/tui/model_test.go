package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/execution-console/internal/content"
	"github.com/lk2023060901/execution-console/internal/execution/biz"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/presentation"
	"github.com/lk2023060901/execution-console/internal/router"
)

type fakeRepo struct {
	exec *biz.Execution
	err  error
}

func (r *fakeRepo) Get(context.Context, string) (*biz.Execution, error) {
	return r.exec, r.err
}

func (r *fakeRepo) ReExecute(context.Context, string, *biz.ReExecuteRequest) (string, error) {
	return "", nil
}

func setupModel(t *testing.T, repo *fakeRepo) (*Model, *router.History) {
	history := router.NewHistory()
	uc := biz.NewExecutionUseCase(repo, history, logger.NewNop())
	renderer, err := presentation.NewRenderer(&bytes.Buffer{}, presentation.Options{Profile: termenv.Ascii})
	require.NoError(t, err)
	return New(context.Background(), uc, renderer, "demo", "exec_01"), history
}

func sampleExecution() *biz.Execution {
	return &biz.Execution{
		Identifier: "exec_01",
		Status:     biz.StatusCompleted,
		ThreadID:   "thread_42",
		Output:     &biz.Output{Content: content.TextValue("done")},
		InputMessages: []biz.Message{
			{Role: biz.RoleUser, Content: content.TextValue("hello")},
		},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_LoadsExecution(t *testing.T) {
	m, _ := setupModel(t, &fakeRepo{exec: sampleExecution()})

	cmd := m.load()
	assert.Contains(t, m.View(), "Loading execution exec_01")

	m.Update(cmd())
	assert.Equal(t, biz.StateReady, m.Snapshot().State)
	assert.Contains(t, m.View(), "Execution exec_01")
	assert.Contains(t, m.View(), helpText)
}

func TestModel_DropsStaleFetch(t *testing.T) {
	m, _ := setupModel(t, &fakeRepo{exec: sampleExecution()})

	first := m.load()
	second := m.load()

	m.Update(first())
	assert.Equal(t, biz.StateLoading, m.Snapshot().State)

	m.Update(second())
	assert.Equal(t, biz.StateReady, m.Snapshot().State)
	assert.Equal(t, uint64(2), m.Snapshot().Generation)
}

func TestModel_ErrorState(t *testing.T) {
	m, _ := setupModel(t, &fakeRepo{err: errors.New("connection refused")})

	m.Update(m.load()())
	assert.Equal(t, biz.StateError, m.Snapshot().State)
	assert.Contains(t, m.View(), "connection refused")
}

func TestModel_Keys(t *testing.T) {
	m, history := setupModel(t, &fakeRepo{exec: sampleExecution()})
	m.Update(m.load()())

	m.Update(key("c"))
	assert.True(t, m.renderer.Options().ShowConversation)
	assert.Contains(t, m.View(), "hello")

	m.Update(key("e"))
	assert.True(t, m.renderer.Options().ExpandMessages)
	m.Update(key("m"))
	assert.True(t, m.renderer.Options().ExpandMetadata)
	m.Update(key("b"))
	assert.True(t, m.renderer.Options().BlocksMode)

	m.Update(key("t"))
	assert.Equal(t, router.ThreadPath("demo", "thread_42"), history.Current())
	assert.Contains(t, m.Status(), "/project/demo/threads/thread_42")

	_, cmd := m.Update(key("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, biz.StateLoading, m.Snapshot().State)

	_, cmd = m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ThreadlessExecution(t *testing.T) {
	exec := sampleExecution()
	exec.ThreadID = biz.NullThreadID
	m, history := setupModel(t, &fakeRepo{exec: exec})
	m.Update(m.load()())

	m.Update(key("t"))
	assert.Equal(t, "execution has no thread", m.Status())
	assert.Empty(t, history.Entries())
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := setupModel(t, &fakeRepo{exec: sampleExecution()})
	m.Update(m.load()())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.renderer.Options().Width)
	assert.Equal(t, 28, m.viewport.Height)
}
