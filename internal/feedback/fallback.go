package feedback

import (
	"github.com/intervoxlabs/intervox/internal/models"
	"github.com/intervoxlabs/intervox/internal/utils"
)

// Every failure path in the feedback flow resolves to one of the statically
// defined payloads below, so behavior under failure is deterministic. None of
// them is ever partially filled in from a bad model response.

// ClientFallback is what the requester stores when the generation endpoint
// cannot be reached or answers with a bad shape.
func ClientFallback() models.Feedback {
	return models.Feedback{
		OverallScore: 65,
		Summary: "Based on your interview responses, you demonstrated some knowledge of the subject matter. " +
			"There were areas where you provided good insights, though some responses could benefit from more depth and specific examples.",
		Categories: []models.FeedbackCategory{
			{
				Name:     "Communication Skills",
				Score:    70,
				Feedback: "You communicated your thoughts clearly for the most part. Consider structuring responses with a clear beginning, middle, and conclusion.",
			},
			{
				Name:     "Technical Knowledge",
				Score:    65,
				Feedback: "You showed understanding of core concepts but could benefit from deeper technical knowledge in some areas.",
			},
			{
				Name:     "Problem Solving",
				Score:    60,
				Feedback: "Your approach to problems was logical, though sometimes lacking in consideration of alternative solutions or edge cases.",
			},
			{
				Name:     "Cultural Fit",
				Score:    75,
				Feedback: "You demonstrated values that align well with most organizations, including teamwork and adaptability.",
			},
		},
		AreasOfImprovement: []string{
			"Provide more specific examples from past experiences",
			"Deepen technical knowledge in key areas relevant to the role",
			"Practice structured responses to common interview questions",
		},
	}
}

// ParseFallback is substituted when the model answered but its output could
// not be parsed into the expected schema. Wording is parameterized by the
// interview type and role.
func ParseFallback(interviewType, role string) models.Feedback {
	r := utils.HumanizeRole(role)
	return models.Feedback{
		OverallScore: 65,
		Summary: "Based on the " + interviewType + " interview for the " + r + " position, the candidate demonstrated some relevant knowledge and skills. " +
			"There were both strengths and areas for improvement identified during the conversation.",
		Categories: []models.FeedbackCategory{
			{
				Name:     "Communication Skills",
				Score:    70,
				Feedback: "The candidate communicated with reasonable clarity, though there's room for improvement in articulation and structure.",
			},
			{
				Name:     "Technical Knowledge",
				Score:    65,
				Feedback: "The candidate showed partial understanding of technical concepts relevant to the " + r + " position.",
			},
			{
				Name:     "Problem Solving",
				Score:    60,
				Feedback: "The candidate demonstrated basic problem-solving approaches but could develop more structured methodologies.",
			},
			{
				Name:     "Cultural Fit",
				Score:    65,
				Feedback: "The candidate appears to align with some organizational values, though further assessment is recommended.",
			},
		},
		AreasOfImprovement: []string{
			"Develop deeper knowledge of " + r + " specific concepts",
			"Provide more specific examples from past experience",
			"Work on clearer articulation of complex concepts",
		},
	}
}

// BasicFallback covers everything else: provider exceptions, network errors
// to the model, and the generation timeout.
func BasicFallback() models.Feedback {
	return models.Feedback{
		OverallScore: 60,
		Summary: "Due to technical limitations, we could only generate basic feedback for this interview. " +
			"The candidate participated in the interview process and provided responses to the questions asked.",
		Categories: []models.FeedbackCategory{
			{
				Name:     "Overall Performance",
				Score:    60,
				Feedback: "The candidate completed the interview process. For more detailed feedback, please try another interview session.",
			},
		},
		AreasOfImprovement: []string{
			"Try another interview for more detailed feedback",
			"Consider reviewing common interview questions for this role",
		},
	}
}

// WebhookFallback replaces an unparseable feedback response on the
// call-ended webhook branch.
func WebhookFallback() models.Feedback {
	return models.Feedback{
		OverallScore: 70,
		Summary:      "The candidate demonstrated good knowledge and communication skills.",
		Categories: []models.FeedbackCategory{
			{Name: "Communication Skills", Score: 75, Feedback: "The candidate communicated clearly and effectively."},
			{Name: "Technical Knowledge", Score: 70, Feedback: "The candidate showed good understanding of technical concepts."},
			{Name: "Problem Solving", Score: 65, Feedback: "The candidate demonstrated adequate problem-solving skills."},
			{Name: "Cultural Fit", Score: 80, Feedback: "The candidate appears to align well with typical organizational values."},
		},
		AreasOfImprovement: []string{
			"Could provide more specific examples in answers",
			"Should elaborate more on technical solutions",
		},
	}
}

// Canned lines for the webhook's generation branches when the model call
// fails.
const (
	FallbackOpeningLine = "Hello! I'm your AI interviewer today. Let's start with a simple question: Could you tell me about your background and experience?"

	FallbackFollowUpLine = "That's interesting. Let me ask you another question: What do you consider your greatest professional strength?"

	ClarifyLine = "I didn't catch that. Could you please repeat?"
)
