package wizard

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  Step
	}{
		{"", StepMenu},
		{"booking=services", StepServices},
		{"booking=PROFESSIONAL", StepProfessional},
		{"booking=datetime", StepDateTime},
		{"booking=confirm", StepConfirm},
		{"booking=checkout", StepMenu},
		{"step=services", StepMenu},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		require.NoError(t, err)
		assert.Equal(t, tt.want, StepFromQuery(q), tt.query)
	}
}

func TestNavigateURLChangesOnlyStepParam(t *testing.T) {
	nav, err := NavigateURL("https://salon.example/book?lang=ru&step=services&booking=menu&masterId=5#top", StepDateTime)
	require.NoError(t, err)
	assert.True(t, nav.Replace)
	assert.Equal(t, StepDateTime, nav.Step)

	u, err := url.Parse(nav.URL)
	require.NoError(t, err)
	assert.Equal(t, "datetime", u.Query().Get("booking"))
	assert.False(t, u.Query().Has("step"))
	assert.Equal(t, "ru", u.Query().Get("lang"))
	assert.Equal(t, "5", u.Query().Get("masterId"))
	assert.Equal(t, "/book", u.Path)
	assert.Equal(t, "top", u.Fragment)
}

func TestNavigateURLInvalid(t *testing.T) {
	_, err := NavigateURL("http://[::1", StepMenu)
	assert.Error(t, err)
}
