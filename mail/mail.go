// Package mail sends the intake confirmation and notification messages
// through the configured SMTP relay. Delivery is best-effort - callers log
// failures and move on, the request record is never rolled back.
package mail

import (
	"fmt"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"gopkg.in/gomail.v2"
)

// Sender delivers the intake mails
type Sender interface {
	// SendConfirmation mails the requester the link carrying their reference
	SendConfirmation(req *domain.DownloadRequest) error
	// SendNotification mails the project address about an accepted request
	SendNotification(req *domain.DownloadRequest) error
}

type smtpSender struct {
	dialer *gomail.Dialer
}

// New returns a Sender talking to the relay from the configuration
func New() Sender {
	d := gomail.NewDialer(conf.Options.SMTP.Host, conf.Options.SMTP.Port,
		conf.Options.SMTP.Username, conf.Options.SMTP.Password)
	return &smtpSender{dialer: d}
}

// DownloadURL is the continuation link for the given reference
func DownloadURL(reference string) string {
	return fmt.Sprintf("%s/?reference=%s", conf.Options.ExternalAddress, reference)
}

// ConfirmationBody composes the plain text mail sent to the requester
func ConfirmationBody(req *domain.DownloadRequest) string {
	return "Hi,\r\n\r\n" +
		"Thank you for your interest in neuroConstruct.\r\n" +
		"The latest version of the software can be downloaded from:\r\n\r\n" +
		DownloadURL(req.Reference) + "\r\n\r\n" +
		"Regards,\r\n" +
		"The neuroConstruct team\r\n"
}

// NotificationBody composes the plain text mail sent to the project address
func NotificationBody(req *domain.DownloadRequest) string {
	return fmt.Sprintf("The code has been downloaded by: %s\r\n\r\n"+
		"Name: %s\r\n"+
		"Email: %s\r\n"+
		"Institution: %s\r\n"+
		"Country: %s\r\n"+
		"Brain region: %s\r\n"+
		"Research Type: %s\r\n"+
		"Research description: %s\r\n"+
		"Comment: %s\r\n",
		req.Email, req.Name, req.Email, req.Institution, req.Country,
		req.BrainRegion, req.ResearchTopic, req.DescriptionResearch, req.Comment)
}

func (s *smtpSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", conf.Options.SMTP.From)
	m.SetHeader("Reply-To", conf.Options.SMTP.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

func (s *smtpSender) SendConfirmation(req *domain.DownloadRequest) error {
	return s.send(req.Email, "Downloading neuroConstruct", ConfirmationBody(req))
}

func (s *smtpSender) SendNotification(req *domain.DownloadRequest) error {
	if conf.Options.SMTP.Notify == "" {
		return nil
	}
	subject := fmt.Sprintf("The code has been downloaded by: %s", req.Email)
	return s.send(conf.Options.SMTP.Notify, subject, NotificationBody(req))
}
