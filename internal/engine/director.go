package engine

import (
	"log/slog"
	"strings"

	"github.com/atelier-ai/maestro/internal/model"
)

// Phrases in recent conversation that mark a tracked objective as reached.
// Progress is detected from content, never from which persona was asked.
var progressSignals = map[string][]string{
	model.TaskProblemStatement:  {"problem statement", "key tension", "challenge is", "the problem"},
	model.TaskCEOConsulted:      {"dna", "autonomy", "brand identity", "group dna", "mission", "heritage"},
	model.TaskCHROConsulted:     {"competency", "vision", "entrepreneurship", "passion", "trust", "framework", "360"},
	model.TaskCompetencyModel:   {"junior level", "mid level", "senior level", "behavior indicator"},
	model.TaskFeedbackProgram:   {"rater", "anonymity", "coaching", "survey", "feedback"},
	model.TaskRegionalConsulted: {"europe", "regional", "rollout", "france", "italy", "train-the-trainer"},
	model.TaskRolloutPlan:       {"phase 1", "phase 2", "pilot", "cascade", "timeline"},
	model.TaskKPITable:          {"kpi", "metric", "dashboard", "promotion rate", "mobility rate"},
}

var negativeSignals = []string{
	"i don't know", "confused", "help", "stuck", "what do you mean",
	"i'm lost", "no idea", "unclear", "don't understand", "??",
}

var positiveSignals = []string{
	"great", "thanks", "i think", "my plan is", "here's my proposal",
	"i propose", "let me try", "i'll create", "makes sense",
}

const (
	stuckThreshold     = 3
	frustrationCutoff  = 0.3
	sentimentDown      = 0.15
	sentimentUp        = 0.10
	progressScanWindow = 5
)

// Director watches each turn for progress, sentiment, and stalls, and
// decides when the Mentor should step in. It runs after the Supervisor has
// routed and before the persona responds.
type Director struct {
	logger *slog.Logger
}

func NewDirector(logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{logger: logger.With("component", "director")}
}

// Check updates the session's task progress, sentiment, and stuck counter
// for this turn, and reports whether the Mentor should take it. An explicit
// persona choice suppresses the override; the hint conditions are still
// evaluated and logged.
func (d *Director) Check(sess *model.Session, message string, explicit bool) bool {
	progressMade := d.detectProgress(sess, message)
	sess.SentimentScore = nextSentiment(sess.SentimentScore, message)

	if progressMade {
		sess.StuckCounter = 0
	} else {
		sess.StuckCounter++
	}

	stuck := sess.StuckCounter >= stuckThreshold
	frustrated := sess.SentimentScore < frustrationCutoff
	if !stuck && !frustrated {
		return false
	}

	if explicit {
		d.logger.Info("hint conditions met but user chose the persona, skipping override",
			"session_id", sess.ID, "stuck", stuck, "frustrated", frustrated)
		return false
	}

	d.logger.Info("director overriding to mentor",
		"session_id", sess.ID, "stuck", stuck, "frustrated", frustrated,
		"sentiment", sess.SentimentScore)
	sess.StuckCounter = 0
	return true
}

// detectProgress scans the last few turns plus the current message for
// completion signals. Completed tasks never revert.
func (d *Director) detectProgress(sess *model.Session, message string) bool {
	var sb strings.Builder
	for _, line := range sess.RecentText(progressScanWindow - 1) {
		sb.WriteString(strings.ToLower(line))
		sb.WriteByte(' ')
	}
	sb.WriteString(strings.ToLower(message))
	recent := sb.String()

	made := false
	for task, keywords := range progressSignals {
		if sess.TaskProgress[task] {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(recent, kw) {
				sess.TaskProgress[task] = true
				made = true
				d.logger.Info("task completed", "session_id", sess.ID, "task", task)
				break
			}
		}
	}
	return made
}

// nextSentiment nudges the running score by the dominant signal direction in
// the user's message, clamped to [0,1]. Ties leave it unchanged.
func nextSentiment(current float64, message string) float64 {
	lower := strings.ToLower(message)
	neg, pos := 0, 0
	for _, s := range negativeSignals {
		if strings.Contains(lower, s) {
			neg++
		}
	}
	for _, s := range positiveSignals {
		if strings.Contains(lower, s) {
			pos++
		}
	}
	switch {
	case neg > pos:
		return max(0, current-sentimentDown)
	case pos > neg:
		return min(1, current+sentimentUp)
	}
	return current
}
