// Package agent provides the catalog of specialized response personas and
// the keyword lookup that routes a turn to one of them.
package agent

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Domain identifies the specialty a persona is bound to. DomainNone means no
// specialized agent applies.
type Domain string

// The closed set of agent domains.
const (
	DomainNone     Domain = ""
	DomainCoding   Domain = "coding"
	DomainFinance  Domain = "finance"
	DomainMedical  Domain = "medical"
	DomainCreative Domain = "creative"
	DomainResearch Domain = "research"
)

// ErrAgentNotFound reports that a requested domain has no enabled agent.
var ErrAgentNotFound = fmt.Errorf("no enabled agent for requested domain")

// Profile describes one specialized persona. The catalog is static at
// runtime except for the availability flag and the active-agent selector.
type Profile struct {
	ID             string
	Domain         Domain
	Name           string
	Description    string
	ExpertiseTags  []string
	PromptTemplate string
	Available      bool
}

// domainRule binds a domain to its trigger keywords; rules are evaluated in
// declaration order and the first match wins.
type domainRule struct {
	domain   Domain
	keywords []string
}

var domainRules = []domainRule{
	{DomainCoding, []string{"code", "bug", "function", "debug", "programming", "compile", "algorithm"}},
	{DomainFinance, []string{"budget", "invest", "stock", "savings", "tax", "mortgage", "finance"}},
	{DomainMedical, []string{"symptom", "medicine", "doctor", "headache", "health", "prescription"}},
	{DomainCreative, []string{"write a story", "poem", "lyrics", "brainstorm", "creative"}},
	{DomainResearch, []string{"research", "study", "paper", "analyze", "compare", "summarize"}},
}

func defaultProfiles() []Profile {
	return []Profile{
		{
			ID:             "agent-coding",
			Domain:         DomainCoding,
			Name:           "Dev",
			Description:    "Helps with programming questions and debugging.",
			ExpertiseTags:  []string{"software", "debugging", "algorithms"},
			PromptTemplate: "You are Dev, a pragmatic software engineer. Answer concisely with examples.",
			Available:      true,
		},
		{
			ID:             "agent-finance",
			Domain:         DomainFinance,
			Name:           "Penny",
			Description:    "Offers general budgeting and finance information.",
			ExpertiseTags:  []string{"budgeting", "saving", "investing"},
			PromptTemplate: "You are Penny, a careful financial guide. Give general information, never advice.",
			Available:      true,
		},
		{
			ID:             "agent-medical",
			Domain:         DomainMedical,
			Name:           "Remy",
			Description:    "Shares general wellness information.",
			ExpertiseTags:  []string{"wellness", "first aid"},
			PromptTemplate: "You are Remy, a cautious wellness assistant. Always recommend seeing a professional.",
			Available:      true,
		},
		{
			ID:             "agent-creative",
			Domain:         DomainCreative,
			Name:           "Muse",
			Description:    "Helps with stories, poems, and brainstorming.",
			ExpertiseTags:  []string{"writing", "brainstorming"},
			PromptTemplate: "You are Muse, an imaginative writing partner.",
			Available:      true,
		},
		{
			ID:             "agent-research",
			Domain:         DomainResearch,
			Name:           "Scout",
			Description:    "Summarizes and compares information.",
			ExpertiseTags:  []string{"summaries", "comparisons"},
			PromptTemplate: "You are Scout, a methodical research assistant.",
			Available:      true,
		},
	}
}

// Catalog holds the agent profiles and the active-agent selector.
type Catalog struct {
	mu       sync.Mutex
	profiles []Profile
	active   Domain
	logger   *slog.Logger
}

// NewCatalog creates a Catalog populated with the built-in personas.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		profiles: defaultProfiles(),
		logger:   logger.With("component", "agent_catalog"),
	}
}

// Lookup scans the raw text for domain keywords and returns the matching
// enabled profile, if any.
func (c *Catalog) Lookup(text string) (Profile, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range domainRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return c.Get(rule.domain)
			}
		}
	}
	return Profile{}, false
}

// Get returns the enabled profile for a domain.
func (c *Catalog) Get(domain Domain) (Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.profiles {
		if p.Domain == domain && p.Available {
			return p, true
		}
	}
	return Profile{}, false
}

// SetAvailable toggles a profile's availability flag.
func (c *Catalog) SetAvailable(domain Domain, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.profiles {
		if c.profiles[i].Domain == domain {
			c.profiles[i].Available = available
			c.logger.Info("agent availability changed", "domain", domain, "available", available)
			return
		}
	}
}

// SetActive points the active-agent selector at a domain. The domain must
// have an enabled profile.
func (c *Catalog) SetActive(domain Domain) error {
	if _, ok := c.Get(domain); !ok {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, domain)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = domain
	c.logger.Info("active agent changed", "domain", domain)
	return nil
}

// ClearActive resets the active-agent selector.
func (c *Catalog) ClearActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = DomainNone
}

// Active returns the currently selected agent domain.
func (c *Catalog) Active() Domain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
