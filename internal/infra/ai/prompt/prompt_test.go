package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanProblem(t *testing.T) {
	raw := "Context: cells divide.\nQuestion: why?\nThink step by step and show work."

	assert.Equal(t, "cells divide.\n why?", CleanProblem(raw, true))
	assert.Equal(t, " cells divide.\n why?\nThink step by step and show work.", CleanProblem(raw, false))
	assert.Equal(t, "plain", CleanProblem("  plain \n", true))
	assert.Equal(t, "", CleanProblem("Think step by step", true))
}

func TestProjectionPrompts(t *testing.T) {
	p := GetProjectionPrompt("biology", "Question: What is ATP? Think step by step.")
	assert.True(t, strings.HasPrefix(p, "I'm being asked the following but I don't understand anything about biology."))
	assert.True(t, strings.HasSuffix(p, "same way. \n \nWhat is ATP?"))
	assert.NotContains(t, p, "Think step by step")

	assert.Equal(t, " What is ATP? Think step by step.", GetDefaultAnswerPrompt("Question: What is ATP? Think step by step."))
	assert.True(t, strings.HasSuffix(GetReprojectionPrompt("simple answer"), "middle-school version. simple answer"))
	assert.Contains(t, GetProjectionAnswerPrompt(), "middle-school vocab")
}

func TestGradingPrompt(t *testing.T) {
	p := GetGradingPrompt("P?", "1 point for X", "the answer mentions {rubric}")

	assert.Contains(t, p, "The problem: P? ***\n")
	assert.Contains(t, p, "The rubric: 1 point for X***\n")
	assert.Contains(t, p, "The attempted answer: the answer mentions {rubric}***\n\n")
	assert.True(t, strings.HasSuffix(p, "For example, VERDICT: 2.5 or VERDICT: 8."))
	assert.NotContains(t, p, "{problem}")
}

func TestSimpleGradingPrompt(t *testing.T) {
	p := GetSimpleGradingPrompt("R", "A")
	assert.Equal(t, "Here is an answer to a question, and a rubric for grading it. grade the answer using the rubric.\n Answer:  A \n Rubric:\n R\n"+
		"End with VERDICT: <total_points> in the last line.", p)
}
