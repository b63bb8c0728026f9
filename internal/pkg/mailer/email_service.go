package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendSupportRequest(fromEmail, fromName, message string) error
}

type emailService struct {
	dialer       *gomail.Dialer
	senderEmail  string
	supportEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail, supportEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:       d,
		senderEmail:  senderEmail,
		supportEmail: supportEmail,
	}
}

// SendSupportRequest forwards a user's in-chat support request to the
// support mailbox.
func (s *emailService) SendSupportRequest(fromEmail, fromName, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.supportEmail)
	m.SetHeader("Reply-To", fromEmail)
	m.SetHeader("Subject", fmt.Sprintf("Support request from %s", fromName))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Support request</h2>
			<p><strong>From:</strong> %s (%s)</p>
			<p><strong>Message:</strong></p>
			<p>%s</p>
		</div>
	`, html.EscapeString(fromName), html.EscapeString(fromEmail), html.EscapeString(message))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to forward support request from %s: %v\n", fromEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Support request forwarded for %s\n", fromEmail)
	return nil
}
