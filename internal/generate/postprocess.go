package generate

import "strings"

// PostProcess trims answer and replaces it with a canned answer when it is
// empty or, with echoFilter set, when MentionsQuestion reports it.
func PostProcess(answer, question string, echoFilter bool) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return EmptyAnswer
	}
	if echoFilter && MentionsQuestion(answer, question) {
		return EchoedAnswer
	}
	return answer
}

// MentionsQuestion reports whether answer contains the whole question,
// ignoring case. Small models often restate the question when the context
// does not hold the answer, so this is treated as a low-quality answer.
//
// It is a heuristic. A good answer that quotes the question is discarded, and
// a paraphrased echo slips through.
func MentionsQuestion(answer, question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(answer), q)
}
