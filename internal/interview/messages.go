package interview

import (
	"fmt"
	"strings"

	"github.com/talentscout/screener/internal/validate"
)

const (
	msgSessionClosed = "This screening session is closed. Thank you again for your time!"

	msgSaveFailedExit = "Thank you for your time! There was a technical issue while saving your data, " +
		"but our team has been notified. Have a great day!"

	msgSaveFailedComplete = "Thank you for completing the technical screening! However, there was a " +
		"technical issue saving your data. Please contact our HR team directly with your information."

	msgTechStackReprompt = "I couldn't identify specific technologies from your input. Please list them " +
		"more clearly (e.g., Python, JavaScript, React, PostgreSQL)."
)

var greetingWords = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {}, "start": {}, "begin": {},
}

func greetingMessage(input string) string {
	opening := "Welcome to TalentScout!"
	if _, ok := greetingWords[strings.ToLower(strings.TrimSpace(input))]; ok {
		opening = "Hello and welcome to TalentScout!"
	}

	return opening + " I'm here to run a short initial screening: a few details about you, " +
		"then some technical questions tailored to your skills. This should take about 10-15 minutes. " +
		"To start, what's your full name?"
}

// statePrompt is the message emitted on entering a collection state.
func statePrompt(s *Session, state State) string {
	switch state {
	case StateCollectEmail:
		return fmt.Sprintf("Nice to meet you, %s! What's the best email address to reach you? (e.g., mike.smith@example.com)", s.Profile.Name)
	case StateCollectPhone:
		return "Great! Now please provide your phone number including the country code (e.g., +1 415 555 2671)."
	case StateCollectExperience:
		return "Perfect! How many years of professional experience do you have?"
	case StateCollectPosition:
		return "Excellent! What type of position are you interested in? (e.g., Backend Developer, Frontend Developer)"
	case StateCollectLocation:
		return "Noted! What's your current location? (City, Country)"
	case StateCollectTechStack:
		return "Great! Please list the programming languages, frameworks, databases, and tools you are " +
			"proficient in (e.g., Python, JavaScript, React, PostgreSQL)."
	default:
		return ""
	}
}

// rePrompt explains a rejected input, naming the rejection reason.
func rePrompt(field validate.Field, reason validate.Reason) string {
	var hint string
	switch field {
	case validate.FieldName:
		hint = "Please provide your full name using letters only, such as 'John Doe'."
	case validate.FieldEmail:
		hint = "Please provide a valid email address, such as 'john.doe@mail.com'."
	case validate.FieldPhone:
		hint = "Please provide a valid phone number with country code, such as '+1 415 555 2671'."
	case validate.FieldExperience:
		hint = fmt.Sprintf("Please provide a whole number of years between %d and %d.",
			validate.MinExperienceYears, validate.MaxExperienceYears)
	case validate.FieldLocation:
		hint = "Please provide a valid city and country, such as 'New Delhi, India'."
	default:
		hint = "Please provide an answer."
	}

	return fmt.Sprintf("%s (%s)", hint, reason)
}

func assessmentIntro(stack []string, firstTech, question string) string {
	return fmt.Sprintf(
		"Perfect! I can see you work with %s. Now let's dive into some technical questions to better "+
			"understand your expertise.\n\nLet's start with **%s**:\n\n%s",
		strings.Join(stack, ", "), firstTech, question,
	)
}

func followUpMessage(question string) string {
	return fmt.Sprintf("That's interesting! Let me ask a follow-up:\n\n%s", question)
}

func nextTechnologyMessage(done, next, question string) string {
	return fmt.Sprintf("Excellent work on %s! Now let's move to **%s**:\n\n%s", done, next, question)
}

func closingSummary(s *Session) string {
	return fmt.Sprintf(
		"Outstanding work, %s! You've completed the technical screening covering %s.\n\n"+
			"Your responses have been saved securely. Our technical team will review them and get back "+
			"to you within 2-3 business days.\n\nThank you for your time!",
		s.Profile.Name, strings.Join(s.TechStack, ", "),
	)
}

func exitMessage(s *Session) string {
	if s.Profile.Name == "" {
		return "Thank you for visiting! Feel free to return anytime to complete the screening. Have a great day!"
	}
	return fmt.Sprintf(
		"Thank you for your time, %s! Your information has been saved securely. "+
			"Our team will review your responses and get back to you soon. Have a great day!",
		s.Profile.Name,
	)
}
