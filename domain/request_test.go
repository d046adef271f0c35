package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSubmission() Submission {
	return Submission{
		Name:                "Ada Lovelace",
		Email:               "ada@example.org",
		Institution:         "UCL",
		Country:             "United Kingdom",
		BrainRegionSel:      "Cerebellum",
		ResearchTopic:       "Modelling",
		DescriptionResearch: "Compartmental models",
	}
}

func TestValidateAccepts(t *testing.T) {
	s := validSubmission()
	assert.Nil(t, s.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Submission)
		field   string
		message string
	}{
		{"bad email", func(s *Submission) { s.Email = "not-an-address" }, "email", "Invalid email address!"},
		{"empty email", func(s *Submission) { s.Email = "" }, "email", "Invalid email address!"},
		{"empty name", func(s *Submission) { s.Name = "  " }, "name", "Invalid name."},
		{"empty institution", func(s *Submission) { s.Institution = "" }, "institution", "Invalid Institution."},
		{"empty country", func(s *Submission) { s.Country = "" }, "country", "Invalid country."},
		{"placeholder country", func(s *Submission) { s.Country = CountryPlaceholder }, "country", "Invalid country."},
		{"no brain region", func(s *Submission) { s.BrainRegionSel = Unspecified }, "brainRegion", "Invalid brain region."},
		{"no research topic", func(s *Submission) { s.ResearchTopic = "" }, "researchTopic", "Invalid research focus."},
		{"placeholder topic", func(s *Submission) { s.ResearchTopic = Unspecified }, "researchTopic", "Invalid research focus."},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := validSubmission()
			test.mutate(&s)
			verr := s.Validate()
			if assert.NotNil(t, verr) {
				assert.Equal(t, test.field, verr.Field)
				assert.Equal(t, test.message, verr.Message)
			}
		})
	}
}

// The email check comes first, matching the original form order
func TestValidateOrder(t *testing.T) {
	s := Submission{}
	verr := s.Validate()
	if assert.NotNil(t, verr) {
		assert.Equal(t, "email", verr.Field)
	}
}

func TestValidateFreeTextBrainRegion(t *testing.T) {
	s := validSubmission()
	s.BrainRegionSel = Unspecified
	s.BrainRegion = "Dentate gyrus"
	assert.Nil(t, s.Validate())
}

func TestClean(t *testing.T) {
	assert.Equal(t, "hello", Clean("  hello  "))
	assert.Equal(t, "ab", Clean("a\x00\x07b"))
	assert.Equal(t, "a\nb\tc", Clean("a\nb\tc"))
	assert.Equal(t, "", Clean(" \t\n "))
}

func TestValidateCleansFields(t *testing.T) {
	s := validSubmission()
	s.Email = "  ada@example.org  "
	s.Name = "\tAda\n"
	assert.Nil(t, s.Validate())
	assert.Equal(t, "ada@example.org", s.Email)
	assert.Equal(t, "Ada", s.Name)
}

func TestBrainRegionValue(t *testing.T) {
	s := Submission{BrainRegionSel: "Cerebellum"}
	assert.Equal(t, "Cerebellum", s.BrainRegionValue())
	s.BrainRegion = "Dentate gyrus"
	assert.Equal(t, "Dentate gyrus", s.BrainRegionValue())
}

func TestNewReference(t *testing.T) {
	pattern := regexp.MustCompile("^[a-zA-Z0-9]+$")
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := NewReference()
		assert.Len(t, ref, 26)
		assert.Regexp(t, pattern, ref)
		assert.False(t, seen[ref], "reference issued twice")
		seen[ref] = true
	}
}

func TestRequest(t *testing.T) {
	s := validSubmission()
	assert.Nil(t, s.Validate())
	req := s.Request("client.example.org")
	assert.Len(t, req.Reference, 26)
	assert.Equal(t, "ada@example.org", req.Email)
	assert.Equal(t, "Cerebellum", req.BrainRegion)
	assert.Equal(t, "client.example.org", req.ClientServer)
	assert.False(t, req.RequestDate.IsZero())
}
