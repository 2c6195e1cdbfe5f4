package llm

import (
	"fmt"
	"strings"
)

const draftingSystemPrompt = `You are a drafting assistant for project plans and proposals.
Write clear, structured documents in Markdown. Use headings, numbered steps,
and concrete milestones. Do not invent facts the user has not provided; mark
unknowns as open questions at the end of the draft.`

// assembles the user message for one drafting call, prepending any project
// context the caller supplied
func buildDraftingPrompt(req *GenerateRequest) string {
	if strings.TrimSpace(req.Context) == "" {
		return req.Prompt
	}

	return fmt.Sprintf("Project context:\n%s\n\nRequest: %s", req.Context, req.Prompt)
}
