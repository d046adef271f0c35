package mail

import (
	"testing"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/stretchr/testify/assert"
)

func testRequest() *domain.DownloadRequest {
	return &domain.DownloadRequest{
		Reference:           "abcDEF123abcDEF123abcDEF12",
		Name:                "Ada Lovelace",
		Email:               "ada@example.org",
		Institution:         "UCL",
		Country:             "United Kingdom",
		BrainRegion:         "Cerebellum",
		ResearchTopic:       "Modelling",
		DescriptionResearch: "Compartmental models",
		Comment:             "none",
	}
}

func TestDownloadURL(t *testing.T) {
	conf.Default()
	assert.Equal(t, "http://localhost:9090/?reference=abc", DownloadURL("abc"))
}

func TestConfirmationBody(t *testing.T) {
	conf.Default()
	req := testRequest()
	body := ConfirmationBody(req)
	assert.Contains(t, body, "Thank you for your interest in neuroConstruct.")
	assert.Contains(t, body, DownloadURL(req.Reference))
	assert.Contains(t, body, "The neuroConstruct team")
}

func TestNotificationBody(t *testing.T) {
	req := testRequest()
	body := NotificationBody(req)
	assert.Contains(t, body, "The code has been downloaded by: ada@example.org")
	assert.Contains(t, body, "Name: Ada Lovelace")
	assert.Contains(t, body, "Institution: UCL")
	assert.Contains(t, body, "Country: United Kingdom")
	assert.Contains(t, body, "Brain region: Cerebellum")
	assert.Contains(t, body, "Research Type: Modelling")
	assert.Contains(t, body, "Research description: Compartmental models")
	assert.Contains(t, body, "Comment: none")
}

// Without a notify address the notification is silently skipped, so no relay
// is needed here
func TestNotificationSkippedWithoutAddress(t *testing.T) {
	conf.Default()
	conf.Options.SMTP.Notify = ""
	s := New()
	assert.NoError(t, s.SendNotification(testRequest()))
}
