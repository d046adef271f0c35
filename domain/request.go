package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/NeuralEnsemble/download/util"
	"github.com/asaskevich/govalidator"
)

// Placeholder values of the form selects that count as "not chosen"
const (
	CountryPlaceholder = "Country..."
	Unspecified        = "Unspecified"
)

// 26 alphanumeric characters from crypto/rand, comfortably over 128 bits
const referenceLength = 26

// DownloadRequest is the persisted record of an accepted intake. It is
// written exactly once and never updated or deleted.
type DownloadRequest struct {
	Reference           string    `json:"reference"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Institution         string    `json:"institution"`
	Country             string    `json:"country"`
	BrainRegion         string    `json:"brainRegion" db:"brain_region"`
	ResearchTopic       string    `json:"researchTopic" db:"research_topic"`
	DescriptionResearch string    `json:"descriptionResearch" db:"description_research"`
	Comment             string    `json:"comment"`
	RequestDate         time.Time `json:"requestDate" db:"request_date"`
	ClientServer        string    `json:"clientServer" db:"client_server"`
}

// NewReference issues a fresh random reference token
func NewReference() string {
	return util.SecureRandomString(referenceLength, false)
}

// Submission holds the raw form fields of an intake attempt before validation.
type Submission struct {
	Name                string
	Email               string
	Institution         string
	Country             string
	BrainRegionSel      string
	BrainRegion         string
	ResearchTopic       string
	DescriptionResearch string
	Comment             string
}

// ValidationError is a field-specific intake failure shown to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Clean trims surrounding space and strips control characters. Storage safety
// comes from parameter binding and rendering safety from template escaping,
// so nothing else is rewritten here.
func Clean(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s))
}

func (s *Submission) clean() {
	s.Name = Clean(s.Name)
	s.Email = Clean(s.Email)
	s.Institution = Clean(s.Institution)
	s.Country = Clean(s.Country)
	s.BrainRegionSel = Clean(s.BrainRegionSel)
	s.BrainRegion = Clean(s.BrainRegion)
	s.ResearchTopic = Clean(s.ResearchTopic)
	s.DescriptionResearch = Clean(s.DescriptionResearch)
	s.Comment = Clean(s.Comment)
}

// Validate cleans the fields and checks them in the same fixed order as the
// original form, returning the first failure and nil if all pass.
func (s *Submission) Validate() *ValidationError {
	s.clean()
	switch {
	case !govalidator.IsEmail(s.Email):
		return &ValidationError{Field: "email", Message: "Invalid email address!"}
	case s.Name == "":
		return &ValidationError{Field: "name", Message: "Invalid name."}
	case s.Institution == "":
		return &ValidationError{Field: "institution", Message: "Invalid Institution."}
	case s.Country == "" || s.Country == CountryPlaceholder:
		return &ValidationError{Field: "country", Message: "Invalid country."}
	case (s.BrainRegionSel == "" || s.BrainRegionSel == Unspecified) && s.BrainRegion == "":
		return &ValidationError{Field: "brainRegion", Message: "Invalid brain region."}
	case s.ResearchTopic == "" || s.ResearchTopic == Unspecified:
		return &ValidationError{Field: "researchTopic", Message: "Invalid research focus."}
	}
	return nil
}

// BrainRegionValue prefers the free-text region over the dropdown selection
func (s *Submission) BrainRegionValue() string {
	if s.BrainRegion != "" {
		return s.BrainRegion
	}
	return s.BrainRegionSel
}

// Request materializes a validated submission into a DownloadRequest with a
// freshly issued reference.
func (s *Submission) Request(clientServer string) *DownloadRequest {
	return &DownloadRequest{
		Reference:           NewReference(),
		Name:                s.Name,
		Email:               s.Email,
		Institution:         s.Institution,
		Country:             s.Country,
		BrainRegion:         s.BrainRegionValue(),
		ResearchTopic:       s.ResearchTopic,
		DescriptionResearch: s.DescriptionResearch,
		Comment:             s.Comment,
		RequestDate:         time.Now(),
		ClientServer:        clientServer,
	}
}
