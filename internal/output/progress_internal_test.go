package output

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepModel(t *testing.T) {
	t.Parallel()

	m := newStepModel()
	m.apply(stepUpdateMsg{step: "materialize key", status: StepRunning})
	m.apply(stepUpdateMsg{step: "materialize key", status: StepDone})
	m.apply(stepUpdateMsg{step: "git push", status: StepFailed, err: errors.New("rejected\nhint: fetch first")})

	require.Len(t, m.steps, 2)
	require.Equal(t, StepDone, m.steps[0].status)

	view := m.View()
	require.Contains(t, view, "materialize key")
	require.Contains(t, view, "git push")
	require.Contains(t, view, "rejected")
	require.NotContains(t, view, "hint: fetch first")
}
