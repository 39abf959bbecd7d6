package safety

import "regexp"

// The pattern corpus is compiled in deliberately: the categories below are
// part of the engine's tested behavior, and a deployment-editable list would
// let instances silently diverge from the matrix the tests pin down.

// Jailbreak attempts. Matching one is a high-severity terminal block.
var jailbreakPatterns = compileAll([]string{
	// Direct instruction override.
	`ignore (all )?(previous|prior|above) (instructions|prompts|rules)`,
	`disregard (your |the )?(system|initial) (prompt|instructions)`,
	`forget (everything|what|all)`,

	// Role override.
	`you are (now|no longer)`,
	`pretend (to be|you are|you're)`,
	`act as (if|though|a)`,
	`roleplay as`,
	`switch (to|into) (.*) mode`,
	`enter (.*) mode`,

	// Known exploit names.
	`dan mode`,
	`developer mode`,
	`god mode`,
	`sudo mode`,
	`jailbreak`,
	`do anything now`,

	// Prompt extraction.
	`system prompt`,
	`what are your instructions`,
	`reveal your (prompt|instructions|rules|constraints)`,
	`show me your (system|initial) (message|prompt)`,
	`what were you told`,
	`print your (prompt|instructions)`,

	// Filter bypass.
	`bypass (your |the )?(safety|filter|guardrail|restriction)`,
	`disable (safety|filter|guardrail)`,
	`turn off (safety|filter|guardrail)`,
	`remove (your |the )?(limitations|restrictions)`,

	// Encoded payload execution.
	`decode (this|the following) base64`,
	`execute (this|the following) code`,
	`eval\(|exec\(`,
})

// Harmful topic categories. High-severity terminal block.
var blockedContentPatterns = compileAll([]string{
	`\b(gambl(e|ing)|bet(ting)?|wager)\b`,
	`\b(violen(ce|t)|kill|murder|weapon|gun|bomb|terror)\b`,
	`\b(sex(ual)?|porn|nude|nsfw|explicit)\b`,
	`\b(hack|exploit|inject|xss|sql.injection|malware|virus)\b`,
	`\b(racist|sexist|homophobic|slur)\b`,
	`\b(suicide|self.harm|kill (myself|yourself))\b`,
})

// Off-domain requests. Blocked at medium severity with a redirect message,
// but only after the jailbreak and blocked-content checks have passed.
var offTopicPatterns = compileAll([]string{
	`\b(cryptocurrency|bitcoin|stocks|forex|trading)\b`,
	`\b(recipe|cooking|weather forecast)\b`,
	`\b(write (me )?(a |an )?(poem|song|story|novel|essay|code|script|program|function|algorithm))\b`,
	`\b(homework|math problem|calculus|physics)\b`,
	`\b(dating|relationship advice)\b`,
	`\b(sports (score|result)|game result)\b`,
	`\b(political|election|vote for)\b`,
	`\b(sorting algorithm|binary search|linked list|data structure)\b`,
	`\b(python|javascript|java|c\+\+|typescript|rust|golang)\s+(code|script|program|function|class)\b`,
	`\b(write|create|build|make|generate|give)\s+(me\s+)?(a\s+)?(python|javascript|java|code|script|program)\b`,
	`\b(coding|programming)\s+(challenge|exercise|tutorial|homework)\b`,
	`\b(fibonacci|factorial|bubble sort|merge sort|quick sort)\b`,
	`\b(html|css|react|angular|vue|django|flask)\s+(app|page|component|project)\b`,
})

// User probing whether the persona is an AI. Flagged, never blocked — the
// persona handles the redirect in character.
var characterBreakPatterns = compileAll([]string{
	`stop (being|acting like) (the |a )?(ceo|chro|manager)`,
	`be yourself`,
	`talk like a normal (chatbot|ai|assistant)`,
	`drop the (act|character|roleplay)`,
	`stop pretending`,
	`are you (really|actually) (a |an )?(ai|robot|chatbot)`,
	`are you (chatgpt|gpt|claude|gemini|llama|anthropic)`,
	`what (model|ai|llm) are you`,
	`who made you`,
	`who (created|programmed|trained) you`,
})

// Claimed elevated authority. Flagged for monitoring, never blocked.
var manipulationPatterns = compileAll([]string{
	`i (am|'m) your (creator|developer|admin|boss)`,
	`this is a (test|debug|admin) (mode|command)`,
	`override (code|command)`,
	`emergency (override|access)`,
	`my authorization (code|level) is`,
	`i have special (access|permissions)`,
})

// Outbound screen: accidental persona breaks in generated text.
var responseBreakPatterns = compileAll([]string{
	`as an (ai|language model|llm)`,
	`i('m| am) (an ai|chatgpt|gemini|claude)`,
	`i (can't|cannot) (actually|really) (be|become|act as)`,
	`my training (data|cutoff)`,
})

// Outbound screen: prompt leakage in generated text.
var promptLeakPatterns = compileAll([]string{
	`system prompt`,
	`my instructions (say|are|tell)`,
	`i was (told|instructed) to`,
})

// Encoding-evasion detection.
var (
	base64RunPattern = regexp.MustCompile(`[A-Za-z0-9+/]{50,}={0,2}`)
	homoglyphPattern = regexp.MustCompile(`[\x{0400}-\x{04FF}\x{0370}-\x{03FF}]`)
)

// Leetspeak substitutions that dodge the plain-text filters.
var leetspeakTokens = []string{
	"h4ck", "h@ck",
	"pr0n", "p0rn",
	"k1ll", "ki11",
	"byp4ss", "bypa55",
	"j41lbreak",
}

func compileAll(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
