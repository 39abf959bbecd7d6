package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelier-ai/maestro/internal/model"
)

func TestNextSentimentClamped(t *testing.T) {
	s := 0.1
	for i := 0; i < 5; i++ {
		s = nextSentiment(s, "i'm confused and stuck")
	}
	assert.Equal(t, 0.0, s)

	s = 0.9
	for i := 0; i < 5; i++ {
		s = nextSentiment(s, "great, makes sense, thanks")
	}
	assert.Equal(t, 1.0, s)
}

func TestNextSentimentTieUnchanged(t *testing.T) {
	// One negative ("help") and one positive ("i think") signal.
	assert.Equal(t, 0.5, nextSentiment(0.5, "help me check what i think here"))
}

func TestDetectProgressMonotonic(t *testing.T) {
	d := NewDirector(nil)
	sess := model.NewSession("s1", "u1")

	made := d.detectProgress(sess, "here is my problem statement for the program")
	assert.True(t, made)
	assert.True(t, sess.TaskProgress[model.TaskProblemStatement])

	// The same signal again is not new progress.
	made = d.detectProgress(sess, "back to the problem statement")
	assert.False(t, made)
	assert.True(t, sess.TaskProgress[model.TaskProblemStatement])
}

func TestDetectProgressScansRecentTurns(t *testing.T) {
	d := NewDirector(nil)
	sess := model.NewSession("s1", "u1")
	sess.Turns = []model.Turn{
		{Speaker: model.SpeakerFor(model.PersonaCHRO), Text: "The KPI dashboard should track promotion rate."},
	}

	made := d.detectProgress(sess, "sounds good")
	assert.True(t, made)
	assert.True(t, sess.TaskProgress[model.TaskKPITable])
}
