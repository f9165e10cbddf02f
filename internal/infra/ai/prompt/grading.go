package prompt

import "strings"

const gradingTemplate = "You are grading a science exam.\n" +
	"You will be given the problem, attempted answer, and a rubric to grade the answer. The rubric " +
	"will total up to 10 points.\n" +
	"Evaluate the attemped answer against the provided rubric. Pay close attention to detail and " +
	"grade it strictly, but fairly. Only evaluate against the rubric, as you yourself should not make " +
	"any judgements (e.g., even if you think the answer is correct but rubric is wrong, you should " +
	"treat the rubric as the gold standard). Return the absolute total number of points earned (it can " +
	"be a decimal based on the rubric). *** \n" +
	"The problem: {problem} " +
	"***\n" +
	"The rubric: {rubric}" +
	"***\n" +
	"The attempted answer: {answer}" +
	"***\n\n" +
	"First, think step-by-step about each rubric item. Explain your reasoning for each rubric item. " +
	"Then, tally the points up and write VERDICT: <total_points> in the last line of your response, " +
	"no other text. For example, VERDICT: 2.5 or VERDICT: 8."

const simpleGradingPrefix = "Here is an answer to a question, and a rubric for grading it. grade the answer using the rubric.\n Answer: "

// GetGradingPrompt fills the rubric grading template. The grader is told to
// finish with a "VERDICT: <number>" line, which is what the collector extracts.
func GetGradingPrompt(problem, rubric, answer string) string {
	// single pass so placeholders inside the inputs are left alone
	r := strings.NewReplacer("{problem}", problem, "{rubric}", rubric, "{answer}", answer)
	return r.Replace(gradingTemplate)
}

const simpleGradingVerdict = "End with VERDICT: <total_points> in the last line."

// GetSimpleGradingPrompt is the short form without the problem text or the
// step-by-step rubric walk. It still asks for the VERDICT line.
func GetSimpleGradingPrompt(rubric, answer string) string {
	return simpleGradingPrefix + " " + answer + " \n Rubric:\n " + rubric + "\n" + simpleGradingVerdict
}
