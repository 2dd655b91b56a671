package services

import (
	"regexp"
	"strings"
)

// fillerRe matches acknowledgement-only replies ("Thanks.", "Okay?", ...).
var fillerRe = regexp.MustCompile(`^(thanks|sorry|okay|that'?s|fine)[^a-z]*\??$`)

// repairStage is one rung of the ladder: when valid rejects the current
// reply, the stage's instruction is used to regenerate it.
type repairStage struct {
	instruction string
	valid       func(string) bool
}

// runRepairLadder evaluates stages in order with first-success
// short-circuit: a reply passing a stage's check is never regenerated by
// that stage. A reply still failing any check after all stages is
// discarded for the fixed fallback. The final text always ends in a
// question mark.
//
// regen builds a prompt from the stage instruction and calls the model;
// an empty regeneration keeps the previous candidate.
func runRepairLadder(reply string, stages []repairStage, fallback string, regen func(instruction string) string) string {
	reply = strings.TrimSpace(reply)

	for _, stage := range stages {
		if stage.valid(reply) {
			continue
		}
		if next := strings.TrimSpace(regen(stage.instruction)); next != "" {
			reply = next
		}
	}

	for _, stage := range stages {
		if !stage.valid(reply) {
			reply = fallback
			break
		}
	}
	return ensureTrailingQuestion(reply)
}

func hasQuestionMark(s string) bool {
	return strings.Contains(s, "?")
}

// isSubstantial rejects replies under five words and filler-only
// acknowledgements.
func isSubstantial(s string) bool {
	if len(strings.Fields(s)) < 5 {
		return false
	}
	return !fillerRe.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// ensureTrailingQuestion normalizes the reply to end on a question mark,
// stripping trailing punctuation first.
func ensureTrailingQuestion(s string) string {
	s = strings.TrimRight(s, ".! \t\n")
	if strings.HasSuffix(s, "?") {
		return s
	}
	return s + "?"
}
