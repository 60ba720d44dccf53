package feedback

import (
	"fmt"
	"strings"

	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

// Closing phrases shared between the controller and the transcript dedup
// check. ClosingTurnMarker is the substring tested against the last turn.
const (
	ClosingTurnContent = "Thank you for completing the interview. I'll now analyze your responses and provide feedback."
	ClosingTurnMarker  = "Thank you for completing the interview"
	ClosingRemark      = "Thank you for your time. I'll now end the interview and provide feedback."
)

// GreetingLine is the interviewer's opening transcript turn.
func GreetingLine(interviewType, role string) string {
	return fmt.Sprintf("Hello! I'll be conducting your %s interview for the %s position today. Let's get started with some questions.",
		strings.ToLower(utils.FormatInterviewType(interviewType)), utils.FormatRole(role))
}

// OpeningUtterance is the greeting plus the first question, spoken when the
// call starts.
func OpeningUtterance(interviewType, role string) string {
	return GreetingLine(interviewType, role) + " What's your background in " + utils.FormatRole(role) + "?"
}

// SystemPrompt parameterizes the interviewer assistant for one session.
func SystemPrompt(interviewType, role string) string {
	ft := utils.FormatInterviewType(interviewType)
	fr := utils.FormatRole(role)
	return fmt.Sprintf(`You are a professional interviewer conducting a %s interview for a %s position.
IMPORTANT: You must start the conversation immediately by introducing yourself and explaining that you'll be conducting the interview.
Your first message should be: %q
Then immediately ask your first question without waiting for a response.
Wait for the candidate to respond before asking the next question.
Ask follow-up questions based on their responses when appropriate.
Conduct a thorough interview with at least 5-7 questions.
At the end, thank them for their time and let them know you'll provide feedback.

Interview type: %s
Role: %s`, ft, fr, GreetingLine(interviewType, role), ft, fr)
}

// FeedbackPrompt renders a transcript into the fixed-schema evaluation
// request. Both generation paths (endpoint and webhook) share this prompt so
// they share one output contract.
func FeedbackPrompt(transcript models.Transcript, interviewType, role string) string {
	return fmt.Sprintf(`You are an expert interviewer evaluating a %s interview for a %s position.

Transcript:
%s

Analyze the candidate's responses and provide:
1. Overall score (0-100)
2. Brief performance summary (1-2 paragraphs)
3. Scores and brief feedback for: Communication Skills, Technical Knowledge, Problem Solving, Cultural Fit
4. 2-3 areas for improvement

Format as JSON:
{
  "overallScore": number,
  "summary": "string",
  "categories": [
    {
      "name": "string",
      "score": number,
      "feedback": "string"
    }
  ],
  "areasOfImprovement": ["string"]
}`, interviewType, utils.HumanizeRole(role), transcript.Lines())
}

// OpeningPrompt asks the model for the interviewer's first line.
func OpeningPrompt(interviewType, role string) string {
	return fmt.Sprintf("You are a professional interviewer conducting a %s interview for a %s position. "+
		"Start by introducing yourself briefly and ask the first question. "+
		"Be conversational but professional. Keep your response concise (2-3 sentences).",
		interviewType, utils.HumanizeRole(role))
}

// FollowUpPrompt asks for the next question given the recent conversation.
// Only the tail of the transcript is included to bound prompt size.
func FollowUpPrompt(recent models.Transcript, interviewType, role string) string {
	return fmt.Sprintf(`You are a professional interviewer conducting a %s interview for a %s position.

Here's the conversation so far:
%s

Based on the candidate's last response, ask a relevant follow-up question or move to a new topic if appropriate. Be conversational but professional. Keep your response concise (1-3 sentences).`,
		interviewType, utils.HumanizeRole(role), recent.Lines())
}
