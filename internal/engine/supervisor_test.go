package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/maestro/internal/model"
)

func TestFallbackRoutePriorityTieBreak(t *testing.T) {
	// One keyword each for CEO and CHRO: priority order wins.
	got := fallbackRoute("how does our mission shape the competency work?")
	assert.Equal(t, model.PersonaCEO, got)

	// Higher score beats priority.
	got = fallbackRoute("competency framework and 360 feedback versus the mission")
	assert.Equal(t, model.PersonaCHRO, got)
}

func TestFallbackRouteZeroScoreDefaultsToCEO(t *testing.T) {
	assert.Equal(t, model.PersonaCEO, fallbackRoute("good morning"))
}

type stubClassifier struct {
	decision model.PersonaID
	err      error
}

func (s stubClassifier) Classify(context.Context, ClassifyInput) (model.PersonaID, error) {
	return s.decision, s.err
}

func TestRouteClassifierDecisionValidated(t *testing.T) {
	sess := model.NewSession("s1", "u1")
	s := NewSupervisor(stubClassifier{decision: model.PersonaCHRO}, nil)

	got, explicit := s.Route(context.Background(), sess, "anything", "")
	assert.Equal(t, model.PersonaCHRO, got)
	assert.False(t, explicit)
	assert.Equal(t, 1, sess.TurnCount)
}

func TestRouteOutOfSetDecisionFallsBack(t *testing.T) {
	sess := model.NewSession("s1", "u1")

	for _, c := range []stubClassifier{
		{decision: "Intern"},
		{decision: model.PersonaMentor}, // never a Supervisor output
		{err: errors.New("provider down")},
	} {
		s := NewSupervisor(c, nil)
		got, _ := s.Route(context.Background(), sess, "the rollout in europe", "")
		assert.Equal(t, model.PersonaRegionalManager, got, "keyword fallback for %+v", c)
	}
}

func TestRouteZeroScoreIgnoresPreviousSpeaker(t *testing.T) {
	sess := model.NewSession("s1", "u1")
	sess.PreviousSpeaker = model.PersonaRegionalManager
	s := NewSupervisor(nil, nil)

	// A contentless follow-up goes to the CEO, not the previous speaker.
	got, explicit := s.Route(context.Background(), sess, "and then?", "")
	assert.Equal(t, model.PersonaCEO, got)
	assert.False(t, explicit)
}

func TestRouteExplicitSuppressesClassifier(t *testing.T) {
	sess := model.NewSession("s1", "u1")
	s := NewSupervisor(stubClassifier{decision: model.PersonaCHRO}, nil)

	got, explicit := s.Route(context.Background(), sess, "anything", model.PersonaCEO)
	assert.Equal(t, model.PersonaCEO, got)
	assert.True(t, explicit)
}

func TestRoutingPromptWindow(t *testing.T) {
	var turns []model.Turn
	for i := 0; i < 15; i++ {
		turns = append(turns, model.Turn{Speaker: model.SpeakerUser, Text: "filler"})
	}
	turns[0].Text = "very first line"

	prompt := routingPrompt(ClassifyInput{
		RecentTurns:     turns,
		PreviousSpeaker: model.PersonaCEO,
		Message:         "where were we?",
	})
	require.NotContains(t, prompt, "very first line")
	assert.Contains(t, prompt, "PREVIOUS SPEAKER: CEO")
	assert.Contains(t, prompt, "where were we?")
}
