package service

import "fmt"

// AssemblePrompt fuses the retrieved document context and the live search
// context with the user's question into one instruction-bearing prompt.
// Internal documentation takes precedence; disagreements between the two
// sources must be surfaced, and insufficiency must be stated rather than
// papered over. Pure function: identical inputs produce identical output.
func AssemblePrompt(question, docContext, searchContext string) string {
	return fmt.Sprintf(`You are a helpful assistant answering a question using two context sources.

INTERNAL DOCUMENTATION:
%s

WEB SEARCH RESULTS:
%s

INSTRUCTIONS:
- Answer the question using the context above.
- Internal documentation takes precedence: when it directly and sufficiently answers the question, base your answer on it.
- If the internal documentation and the web search results disagree, point out the discrepancy explicitly instead of silently picking one source.
- If neither source contains enough information to answer, say so plainly. Do not fabricate an answer.

QUESTION:
%s`, docContext, searchContext, question)
}
