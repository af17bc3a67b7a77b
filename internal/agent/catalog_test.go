package agent

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantDomain Domain
		wantOK     bool
	}{
		{"coding keyword", "there's a bug in my function", DomainCoding, true},
		{"finance keyword", "how should I budget this month", DomainFinance, true},
		{"medical keyword", "I have a headache", DomainMedical, true},
		{"creative keyword", "write a story about a lighthouse", DomainCreative, true},
		{"research keyword", "compare these two papers", DomainResearch, true},
		{"declaration order wins", "debug my budget spreadsheet code", DomainCoding, true},
		{"case insensitive", "DEBUG this for me", DomainCoding, true},
		{"no match", "hello there", DomainNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewCatalog(nil)
			profile, ok := c.Lookup(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && profile.Domain != tt.wantDomain {
				t.Errorf("Lookup(%q).Domain = %q, want %q", tt.text, profile.Domain, tt.wantDomain)
			}
		})
	}
}

func TestLookupSkipsDisabledAgent(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil)
	c.SetAvailable(DomainCoding, false)

	if _, ok := c.Lookup("debug this code"); ok {
		t.Error("Lookup matched a disabled agent, want miss")
	}
	if _, ok := c.Get(DomainCoding); ok {
		t.Error("Get returned a disabled agent, want miss")
	}

	c.SetAvailable(DomainCoding, true)
	if _, ok := c.Get(DomainCoding); !ok {
		t.Error("Get missed a re-enabled agent")
	}
}

func TestSetActive(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil)

	if err := c.SetActive(DomainResearch); err != nil {
		t.Fatalf("SetActive(research) error = %v", err)
	}
	if got := c.Active(); got != DomainResearch {
		t.Errorf("Active() = %q, want %q", got, DomainResearch)
	}

	c.SetAvailable(DomainMedical, false)
	err := c.SetActive(DomainMedical)
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("SetActive(disabled) error = %v, want ErrAgentNotFound", err)
	}

	c.ClearActive()
	if got := c.Active(); got != DomainNone {
		t.Errorf("Active() after ClearActive = %q, want none", got)
	}
}

func TestRespond(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil)
	profile, ok := c.Get(DomainCoding)
	if !ok {
		t.Fatal("coding profile missing")
	}

	online := Respond(profile, "my build fails", true)
	if !strings.HasPrefix(online, "Dev: ") {
		t.Errorf("online reply %q does not start with the agent name", online)
	}
	if strings.Contains(online, DegradedModeNotice) {
		t.Errorf("online reply carries the degraded-mode notice: %q", online)
	}

	offline := Respond(profile, "my build fails", false)
	if !strings.Contains(offline, DegradedModeNotice) {
		t.Errorf("offline reply missing the degraded-mode notice: %q", offline)
	}
}

func TestSummarizeTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text kept", "fix my build", "fix my build"},
		{"long text truncated", "one two three four five six seven eight nine ten", "one two three four five six seven eight..."},
		{"empty text placeholder", "   ", "your question"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := summarizeTopic(tt.text); got != tt.want {
				t.Errorf("summarizeTopic(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
