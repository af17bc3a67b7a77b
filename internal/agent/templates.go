package agent

import (
	"fmt"
	"strings"
)

// DegradedModeNotice is appended to agent replies produced from offline
// templates.
const DegradedModeNotice = "(I'm currently working offline, so this answer uses my built-in knowledge only.)"

// onlineTemplates shape the reply when the remote provider backs the agent.
var onlineTemplates = map[Domain]string{
	DomainCoding:   "Let's work through this together. Looking at %q, here's how I'd approach it: break the problem down, reproduce it in isolation, and check your assumptions at each step.",
	DomainFinance:  "Here's some general information about %q: start by tracking where the money goes, then compare options side by side. For decisions with real stakes, a licensed advisor is worth it.",
	DomainMedical:  "About %q: I can share general wellness information, but I'm not a substitute for a professional. If this is urgent or persistent, please see a doctor.",
	DomainCreative: "I love this prompt! For %q, let's start with a strong opening image and build from there.",
	DomainResearch: "Let me dig into %q. I'd start by identifying the key claims, then compare the strongest sources on each side.",
}

// offlineTemplates are the degraded canned replies used when the remote
// provider is unreachable or unconfigured.
var offlineTemplates = map[Domain]string{
	DomainCoding:   "For %q, a good offline starting point: read the error message carefully, check recent changes, and add a minimal reproduction.",
	DomainFinance:  "For %q, a general rule of thumb: spend less than you earn, keep an emergency fund, and avoid decisions made in a hurry.",
	DomainMedical:  "For %q: rest, hydration, and observation help in many mild cases, but please consult a professional for anything persistent or severe.",
	DomainCreative: "For %q: try freewriting for five minutes without stopping. Momentum beats perfection.",
	DomainResearch: "For %q: list what you already know, what you need to find out, and where you'd look first.",
}

// Respond produces the agent's canned reply for the given text. Online
// templates are used when the remote provider backs the agent; offline
// templates get the degraded-mode notice appended.
func Respond(profile Profile, text string, online bool) string {
	topic := summarizeTopic(text)

	templates := offlineTemplates
	if online {
		templates = onlineTemplates
	}

	tmpl, ok := templates[profile.Domain]
	if !ok {
		tmpl = "Here's what I can tell you about %q."
	}

	reply := fmt.Sprintf("%s: ", profile.Name) + fmt.Sprintf(tmpl, topic)
	if !online {
		reply += " " + DegradedModeNotice
	}
	return reply
}

// NotFoundApology is the generic apology produced when a requested domain
// has no enabled agent.
func NotFoundApology(domain Domain) string {
	return fmt.Sprintf("I'm sorry, I don't have a %s specialist available right now. I'll do my best to help anyway.", domain)
}

// summarizeTopic trims the text to a short phrase usable inside a template.
func summarizeTopic(text string) string {
	trimmed := strings.TrimSpace(text)
	words := strings.Fields(trimmed)
	if len(words) > 8 {
		return strings.Join(words[:8], " ") + "..."
	}
	if trimmed == "" {
		return "your question"
	}
	return trimmed
}
