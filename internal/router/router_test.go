package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	assert.Equal(t, "/project/demo/executions", ExecutionsPath("demo"))
	assert.Equal(t, "/project/demo/executions/e-1", ExecutionPath("demo", "e-1"))
	assert.Equal(t, "/project/demo/threads/th_1", ThreadPath("demo", "th_1"))
	assert.Equal(t, "/project/demo/templates/42", TemplatePath("demo", "42"))
	assert.Equal(t, "/project/my%20proj/executions", ExecutionsPath("my proj"))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    map[string]string
		ok      bool
	}{
		{ExecutionDetail, "/project/demo/executions/e1", map[string]string{"name": "demo", "id": "e1"}, true},
		{ExecutionDetail, "/project/my%20proj/executions/e1/", map[string]string{"name": "my proj", "id": "e1"}, true},
		{ExecutionDetail, "/project/demo/executions", nil, false},
		{Executions, "/project//executions", nil, false},
		{Login, "/login", map[string]string{}, true},
		{Thread, "/project/demo/templates/1", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Match(tt.pattern, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	pattern, params, ok := Resolve(TemplatePath("p", "t1"))
	require.True(t, ok)
	assert.Equal(t, Template, pattern)
	assert.Equal(t, "t1", params["id"])

	_, _, ok = Resolve("/nowhere")
	assert.False(t, ok)
}

func TestHistory(t *testing.T) {
	h := NewHistory(Login)
	assert.Equal(t, Login, h.Current())

	h.Navigate(Projects, true)
	assert.Equal(t, []string{Projects}, h.Entries())

	h.Navigate(ExecutionsPath("p"), false)
	h.Navigate(ExecutionPath("p", "e1"), false)
	assert.Equal(t, 3, h.Calls())
	assert.Equal(t, ExecutionPath("p", "e1"), h.Current())

	prev, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, ExecutionsPath("p"), prev)

	empty := NewHistory()
	assert.Equal(t, "", empty.Current())
	empty.Navigate(Projects, true)
	assert.Equal(t, []string{Projects}, empty.Entries())
	_, ok = empty.Back()
	assert.False(t, ok)
}
