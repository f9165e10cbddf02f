package prompt

import (
	"fmt"
	"strings"
)

const (
	projectionPrefix       = "I'm being asked the following but I don't understand anything about %s. Explain what these are like I'm in middle school, and frame the questions in the same way. \n"
	projectionAnswerPrompt = "Now answer all the questions you have reframed using the same, middle-school vocab style approach"
	reprojectionPrefix     = "Here is a middle-school-vocabulary answer to a question.  looking at the question and the answer, flesh out and articulate a full and detailed answer to the question using scientific vocabulary and \"uncompressing\" ideas that were simplified in the middle-school version."

	cotMarker = "Think step by step"
)

// CleanProblem drops the "Context:" and "Question:" labels from a dataset
// problem. With removeCoT it also cuts everything from the chain-of-thought
// instruction onwards and trims the result.
func CleanProblem(raw string, removeCoT bool) string {
	cleaned := strings.ReplaceAll(raw, "Context:", "")
	cleaned = strings.ReplaceAll(cleaned, "Question:", "")
	if !removeCoT {
		return cleaned
	}
	if i := strings.Index(cleaned, cotMarker); i >= 0 {
		cleaned = cleaned[:i]
	}
	return strings.TrimSpace(cleaned)
}

// GetDefaultAnswerPrompt asks the problem as-is, chain-of-thought instruction included.
func GetDefaultAnswerPrompt(problem string) string {
	return CleanProblem(problem, false)
}

// GetProjectionPrompt asks the model to restate the problem in middle-school vocabulary.
func GetProjectionPrompt(subject, problem string) string {
	return fmt.Sprintf(projectionPrefix, subject) + " \n" + CleanProblem(problem, true)
}

func GetProjectionAnswerPrompt() string {
	return projectionAnswerPrompt
}

// GetReprojectionPrompt asks the model to expand a simplified answer back
// into technical vocabulary.
func GetReprojectionPrompt(projectedAnswer string) string {
	return reprojectionPrefix + " " + projectedAnswer
}
