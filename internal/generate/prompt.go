package generate

import (
	"fmt"

	"github.com/hyperjump/kotae/pkg/utils"
)

const promptTemplate = `### Task:
Answer the question using ONLY the provided context extracts from documents.
If the answer isn't found, say you don't know.

### Context Extracts:
%s

### Question:
%s

### Guidelines:
1. Be concise but thorough
2. Cite which document the information came from
3. If unsure, say "I don't know"

### Answer:`

// StopSequences end generation before the model starts a new prompt section.
var StopSequences = []string{"\n###", "Document:"}

// BuildPrompt renders the completion prompt. contextText is cut to
// contextChars runes when contextChars > 0.
func BuildPrompt(contextText, question string, contextChars int) string {
	if contextChars > 0 {
		contextText = utils.Truncate(contextText, contextChars)
	}
	return fmt.Sprintf(promptTemplate, contextText, question)
}
