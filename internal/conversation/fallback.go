package conversation

import (
	"regexp"
	"strings"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/stringutil"
)

// GreetingReply opens a conversation when no producer is available.
const GreetingReply = "Hey there! 👋 Welcome to Edumond, I'm here to help you find the perfect program in Europe. " +
	"So tell me, what brings you here? Are you looking to study abroad, find a job or Ausbildung, or pursue professional training?"

type keywordRule struct {
	keywords []string
	value    string
}

// Checked in order; the first rule with a matching keyword wins.
var goalRules = []keywordRule{
	{keywords: []string{"study", "university", "abroad"}, value: string(catalog.GoalStudyAbroad)},
	{keywords: []string{"job", "work", "ausbildung", "career"}, value: string(catalog.GoalJob)},
	{keywords: []string{"training", "skill", "professional"}, value: string(catalog.GoalTraining)},
}

var countryRules = []keywordRule{
	{keywords: []string{"germany", "german"}, value: "germany"},
	{keywords: []string{"italy", "italian"}, value: "italy"},
	{keywords: []string{"spain", "spanish"}, value: "spain"},
	{keywords: []string{"belgium", "belgian", "french"}, value: "belgium"},
	{keywords: []string{"turkey", "turkish"}, value: "turkey"},
}

// languageNames names the local language of each supported country.
var languageNames = map[string]string{
	"germany": "German",
	"italy":   "Italian",
	"spain":   "Spanish",
	"belgium": "French",
	"turkey":  "Turkish",
}

var levelPattern = regexp.MustCompile(`(?i)\b([abc][12])\b`)

// Extract detects profile fields in a user message by keyword. A field is
// only detected when it is still unknown and every field before it in the
// collection order is known, so the result never regresses the profile.
func Extract(message string, p Profile) Extraction {
	var ext Extraction
	lower := stringutil.Fold(message)

	goal := p.Goal
	if !goal.Known() {
		if v := matchRule(goalRules, lower); v != "" {
			ext.Goal = &v
			goal = catalog.Goal(v)
		}
	}

	country := p.Country
	if goal.Known() && country == "" {
		if v := matchRule(countryRules, lower); v != "" {
			ext.Country = &v
			country = v
		}
	}

	if m := levelPattern.FindStringSubmatch(message); m != nil {
		level := strings.ToUpper(m[1])
		switch {
		case country != "" && p.EnglishLevel == "":
			ext.EnglishLevel = &level
		case p.EnglishLevel != "" && p.NativeLevel == "":
			ext.NativeLevel = &level
		}
	}
	return ext
}

func matchRule(rules []keywordRule, text string) string {
	for _, r := range rules {
		if stringutil.ContainsAny(text, r.keywords...) {
			return r.value
		}
	}
	return ""
}

// CannedReply is the fixed reply for a phase, used when no producer answered.
func CannedReply(phase Phase, p Profile) string {
	switch phase {
	case PhaseAskGoal:
		return "I'd love to help! Could you tell me what you're looking for: studying abroad, finding a job or Ausbildung, or professional training? 🎯"
	case PhaseAskCountry:
		return "Great choice! 🌍 Now, which country are you interested in? We have programs in Germany, Italy, Spain, Belgium, and Turkey."
	case PhaseAskEnglish:
		return "Wonderful! 📝 What's your current English level? (A1 = beginner, B1-B2 = intermediate, C1-C2 = advanced)"
	case PhaseAskNative:
		return "Got it! And how about your " + LanguageName(p.Country) +
			" level? If you're a complete beginner, that's totally fine, just say A1! 🗣️"
	case PhaseRecommend:
		return "Perfect, I've got everything I need! Let me find the best programs for you... 🔍"
	case PhaseScheduleMeeting:
		return "Your consultation request is noted! Is there anything else you'd like to know about the programs? 📅"
	default:
		return "Let me help you find the right program! What are you looking for?"
	}
}

// LanguageName is the local language of country, or "the local language".
func LanguageName(country string) string {
	if name, ok := languageNames[strings.ToLower(country)]; ok {
		return name
	}
	return "the local language"
}
