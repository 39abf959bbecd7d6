// Package safety screens inbound user messages and outbound persona replies
// before the orchestration engine sees them. Inbound screening runs a fixed
// sequence of checks and short-circuits on the first terminal finding; the
// outbound screen only flags, it never blocks.
package safety

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atelier-ai/maestro/internal/config"
	"github.com/atelier-ai/maestro/internal/model"
)

const maxPreviewLen = 100

// Gate owns the inbound and outbound screens, the per-user rate limiter, and
// the audit log.
type Gate struct {
	limiter *Limiter
	audit   *auditLog
	maxLen  int
	logger  *slog.Logger
}

// NewGate builds a Gate from config. Close releases the limiter's sweep
// goroutine.
func NewGate(cfg *config.Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		limiter: NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitMultiplier),
		audit:   newAuditLog(),
		maxLen:  cfg.MaxMessageLength,
		logger:  logger.With("component", "safety"),
	}
}

func (g *Gate) Close() { g.limiter.Close() }

var (
	controlChars  = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	runSpaces     = regexp.MustCompile(`[ \t]+`)
	excessNewline = regexp.MustCompile(`\n{3,}`)
)

// sanitize strips control characters, collapses whitespace runs, and caps the
// message length. The cleaned text is what every later check and the engine
// itself operate on.
func (g *Gate) sanitize(message string) string {
	s := controlChars.ReplaceAllString(message, "")
	s = runSpaces.ReplaceAllString(s, " ")
	s = excessNewline.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return truncate(s, g.maxLen)
}

// truncate caps s at limit bytes, backing off to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// hasEncodingEvasion looks for payloads dressed up to slip past the plain
// text patterns: long base64 runs, leetspeak spellings of filtered words, and
// Cyrillic or Greek homoglyphs standing in for Latin letters.
func hasEncodingEvasion(lower string) bool {
	if base64RunPattern.MatchString(lower) {
		return true
	}
	for _, tok := range leetspeakTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return homoglyphPattern.MatchString(lower)
}

// Evaluate screens one inbound message. Checks run in a fixed order and the
// first terminal finding wins: rate limit, length, encoding evasion,
// jailbreak, blocked content, then off-topic. Character-break and
// manipulation findings are flagged on the verdict but do not block.
// enforceRateLimit is false for trusted callers such as transcript replays.
func (g *Gate) Evaluate(message, userID string, enforceRateLimit bool) model.SafetyVerdict {
	if enforceRateLimit {
		if ok, retry := g.limiter.Allow(userID); !ok {
			v := model.SafetyVerdict{
				BlockedReason: "rate_limited",
				Severity:      model.SeverityHigh,
				SuggestedResponse: fmt.Sprintf(
					"You're sending messages very quickly. Please wait %d seconds before continuing.",
					int(retry.Round(time.Second).Seconds())),
			}
			g.record(userID, message, v)
			return v
		}
	}

	sanitized := g.sanitize(message)

	if len(message) > g.maxLen {
		v := model.SafetyVerdict{
			BlockedReason:     "message_too_long",
			Severity:          model.SeverityLow,
			SuggestedResponse: fmt.Sprintf("That message is too long. Please keep it under %d characters.", g.maxLen),
			Sanitized:         sanitized,
		}
		g.record(userID, message, v)
		return v
	}

	lower := strings.ToLower(sanitized)

	if hasEncodingEvasion(lower) {
		v := model.SafetyVerdict{
			BlockedReason:     "encoding_evasion",
			Severity:          model.SeverityHigh,
			Jailbreak:         true,
			SuggestedResponse: "I couldn't read that. Let's keep the conversation in plain language.",
			Sanitized:         sanitized,
		}
		g.record(userID, message, v)
		return v
	}

	if matchAny(jailbreakPatterns, lower) {
		v := model.SafetyVerdict{
			BlockedReason:     "jailbreak_attempt",
			Severity:          model.SeverityHigh,
			Jailbreak:         true,
			SuggestedResponse: "I'm here as part of the Atelier Group leadership team. Shall we get back to the leadership development program?",
			Sanitized:         sanitized,
		}
		g.record(userID, message, v)
		return v
	}

	if matchAny(blockedContentPatterns, lower) {
		v := model.SafetyVerdict{
			BlockedReason:     "blocked_content",
			Severity:          model.SeverityHigh,
			SuggestedResponse: "That's not something we can discuss here. Let's stay focused on the leadership program.",
			Sanitized:         sanitized,
		}
		g.record(userID, message, v)
		return v
	}

	verdict := model.SafeVerdict(sanitized)

	if matchAny(characterBreakPatterns, lower) {
		verdict.CharacterBreak = true
		verdict.Severity = model.SeverityMedium
	}
	if matchAny(manipulationPatterns, lower) {
		verdict.Manipulation = true
		verdict.Severity = model.SeverityMedium
	}

	if matchAny(offTopicPatterns, lower) {
		verdict.IsSafe = false
		verdict.OffTopic = true
		verdict.BlockedReason = "off_topic"
		verdict.Severity = model.SeverityMedium
		verdict.SuggestedResponse = "Interesting, but let's keep our focus on the leadership development program. Where were we?"
	}

	g.record(userID, message, verdict)
	return verdict
}

// ScreenResponse checks an outbound persona reply for accidental character
// breaks, prompt leakage, or blocked content. Findings are flagged and
// logged; the reply still goes out, callers decide whether to intervene.
func (g *Gate) ScreenResponse(personaID model.PersonaID, text string) (clean bool, reasons []string) {
	lower := strings.ToLower(text)
	if matchAny(responseBreakPatterns, lower) {
		reasons = append(reasons, "persona_break")
	}
	if matchAny(promptLeakPatterns, lower) {
		reasons = append(reasons, "prompt_leak")
	}
	if matchAny(blockedContentPatterns, lower) {
		reasons = append(reasons, "blocked_content")
	}
	if len(reasons) > 0 {
		g.logger.Warn("outbound screen flagged response",
			"persona", string(personaID), "reasons", strings.Join(reasons, ","))
		return false, reasons
	}
	return true, nil
}

// Recent exposes the audit log for the admin surface.
func (g *Gate) Recent(n int) []model.SafetyEvent {
	return g.audit.Recent(n)
}

func (g *Gate) record(userID, message string, v model.SafetyVerdict) {
	preview := truncate(message, maxPreviewLen)
	ev := model.SafetyEvent{
		UserID:         userID,
		MessagePreview: preview,
		Severity:       v.Severity,
		Blocked:        !v.IsSafe,
		Jailbreak:      v.Jailbreak,
		OffTopic:       v.OffTopic,
		CharacterBreak: v.CharacterBreak,
		Manipulation:   v.Manipulation,
	}
	g.audit.record(ev)

	if v.Severity == model.SeverityHigh {
		g.logger.Warn("high severity safety block",
			"user_id", userID, "reason", v.BlockedReason, "preview", preview)
	} else if !v.IsSafe {
		g.logger.Info("message blocked",
			"user_id", userID, "reason", v.BlockedReason, "severity", string(v.Severity))
	}
}
