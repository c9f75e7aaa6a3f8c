package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buttonSteps(bar ActionBar) []Step {
	steps := make([]Step, 0, len(bar.Buttons))
	for _, b := range bar.Buttons {
		steps = append(steps, b.Step)
	}
	return steps
}

func TestActionBarHiddenOnMenuAndConfirm(t *testing.T) {
	f := NewFormatter("en", "USD")
	assert.False(t, BuildActionBar(completeState(), StepMenu, "en", f).Visible)
	assert.False(t, BuildActionBar(completeState(), StepConfirm, "en", f).Visible)
	assert.Empty(t, BuildActionBar(completeState(), StepConfirm, "en", f).Buttons)
}

func TestActionBarContinueButtons(t *testing.T) {
	f := NewFormatter("en", "USD")

	bar := BuildActionBar(Empty(), StepServices, "en", f)
	assert.True(t, bar.Visible)
	assert.Equal(t, []Step{StepProfessional, StepDateTime}, buttonSteps(bar))

	s := mustApply(Empty(), ToggleService{Service: svc("1", 100, nil)})
	bar = BuildActionBar(s, StepServices, "en", f)
	assert.Equal(t, []Step{StepProfessional, StepDateTime}, buttonSteps(bar))
	assert.Equal(t, "Service 1", bar.Summary.Services)
	assert.NotEmpty(t, bar.Summary.Price)
	assert.NotEmpty(t, bar.Summary.Duration)

	s = mustApply(s, SetProfessional{Selected: true})
	bar = BuildActionBar(s, StepProfessional, "en", f)
	assert.Equal(t, []Step{StepDateTime}, buttonSteps(bar))
	assert.Equal(t, FlexibleOptionID, bar.Summary.Professional)
}

func TestActionBarConfirmOnlyWhenComplete(t *testing.T) {
	f := NewFormatter("en", "USD")
	bar := BuildActionBar(completeState(), StepDateTime, "en", f)
	require.Len(t, bar.Buttons, 1)
	assert.True(t, bar.Buttons[0].Confirm)
	assert.Equal(t, StepConfirm, bar.Buttons[0].Step)
	assert.Equal(t, "2025-06-01 14:00", bar.Summary.DateTime)
	assert.Equal(t, "2 services", bar.Summary.Services)

	incomplete := mustApply(completeState(), SetDateTime{Date: date(2025, 6, 2)})
	for _, b := range BuildActionBar(incomplete, StepServices, "en", f).Buttons {
		assert.False(t, b.Confirm)
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en", "USD")
	assert.Contains(t, f.Price(100), "100")
	assert.Equal(t, "45 min", f.Minutes(45))
	assert.Equal(t, "2 h", f.Minutes(120))
	assert.Equal(t, "1 h 30 min", f.Minutes(90))

	plain := NewFormatter("not a tag", "")
	assert.Contains(t, plain.Price(12.5), "12.5")
}
