package persona

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/maestro/internal/model"
)

func TestRoster(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, model.PersonaCEO, all[0].ID)
	assert.Equal(t, model.PersonaMentor, all[3].ID)

	assert.Nil(t, ByID("Intern"))
	require.NotNil(t, ByID(model.PersonaCHRO))
	assert.NotEmpty(t, ByID(model.PersonaCHRO).HiddenConstraints)
}

func TestBuildPrompt(t *testing.T) {
	p := ByID(model.PersonaCHRO)
	prompt := p.BuildPrompt(PromptInput{
		KnowledgeContext: "The VEPT pillars were ratified in the 2025 framework review.",
		EmotionContext:   "You are somewhat wary of this person.",
		History: []model.Turn{
			{Speaker: model.SpeakerUser, Text: "My name is Alex."},
			{Speaker: model.SpeakerFor(model.PersonaCEO), Text: "Welcome, Alex."},
		},
	})

	assert.Contains(t, prompt, "Vision, Entrepreneurship, Passion, Trust")
	assert.Contains(t, prompt, "REFERENCE DOCUMENTS:")
	assert.Contains(t, prompt, "2025 framework review")
	assert.Contains(t, prompt, "YOUR CURRENT DISPOSITION:")
	assert.Contains(t, prompt, "CEO: Welcome, Alex.")
	assert.Contains(t, prompt, "user: My name is Alex.")
}

func TestBuildPromptHistoryWindow(t *testing.T) {
	p := ByID(model.PersonaCEO)
	var history []model.Turn
	for i := 0; i < promptHistoryWindow+5; i++ {
		history = append(history, model.Turn{Speaker: model.SpeakerUser, Text: "filler"})
	}
	history[4].Text = "dropped line"
	history[len(history)-1].Text = "kept line"

	prompt := p.BuildPrompt(PromptInput{History: history})
	assert.NotContains(t, prompt, "dropped line")
	assert.Contains(t, prompt, "kept line")
}

func TestMentorPromptListsTaskProgress(t *testing.T) {
	progress := model.NewTaskProgress()
	progress[model.TaskCEOConsulted] = true

	prompt := ByID(model.PersonaMentor).BuildPrompt(PromptInput{TaskProgress: progress})
	assert.Contains(t, prompt, "ceo_consulted: done")
	assert.Contains(t, prompt, "chro_consulted: pending")

	// Content personas never see the progress list.
	prompt = ByID(model.PersonaCEO).BuildPrompt(PromptInput{TaskProgress: progress})
	assert.NotContains(t, prompt, "TASK PROGRESS")
}

func TestTrigger(t *testing.T) {
	d, ok := Trigger(model.PersonaCEO, "We should standardize the process across all maisons")
	require.True(t, ok)
	assert.Equal(t, -0.1, d.Relationship)
	assert.Equal(t, 1, d.Tension)
	assert.NotEmpty(t, d.Event)

	d, ok = Trigger(model.PersonaCEO, "What is the Group DNA?")
	require.True(t, ok)
	assert.Equal(t, 0.05, d.Relationship)
	assert.Zero(t, d.Tension)
	assert.Empty(t, d.Event)
	assert.Equal(t, "what is the group dna?", d.Topic)

	_, ok = Trigger(model.PersonaMentor, "help me")
	assert.False(t, ok, "the Mentor keeps no emotional memory")
}

func TestTriggerTopicTruncated(t *testing.T) {
	long := "should i " + strings.Repeat("x", 100)
	d, ok := Trigger(model.PersonaCHRO, long)
	require.True(t, ok)
	assert.Len(t, d.Topic, topicLen)
}

func TestConsultTask(t *testing.T) {
	key, ok := ConsultTask(model.PersonaRegionalManager)
	require.True(t, ok)
	assert.Equal(t, model.TaskRegionalConsulted, key)

	_, ok = ConsultTask(model.PersonaMentor)
	assert.False(t, ok)
}

func TestScriptedGenerator(t *testing.T) {
	g := NewScriptedGenerator()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := g.Generate(ctx, Request{
		Profile:     ByID(model.PersonaCHRO),
		UserMessage: "What are the 4 pillars?",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Vision, Entrepreneurship, Passion, and Trust")

	out, err = g.Generate(ctx, Request{
		Profile:     ByID(model.PersonaRegionalManager),
		UserMessage: "Can we do the full rollout in Q3, in September?",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Q1 pilot")

	out, err = g.Generate(ctx, Request{
		Profile:     ByID(model.PersonaCEO),
		UserMessage: "Hello there",
	})
	require.NoError(t, err)
	assert.Equal(t, scriptedDefaults[model.PersonaCEO], out)
}
