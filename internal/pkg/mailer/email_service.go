package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendEscalationAlert(toEmail, threadID, reason string, at time.Time) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (s *emailService) SendEscalationAlert(toEmail, threadID, reason string, at time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Handover requested: conversation %s", threadID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>A caller needs a human agent</h2>
			<p><strong>Conversation:</strong> %s</p>
			<p><strong>Reason:</strong> %s</p>
			<p><strong>Escalated at:</strong> %s</p>
			<p>The assistant has stopped responding on this thread. Please pick it up from the handover dashboard.</p>
		</div>
	`, threadID, reason, at.Format(time.RFC1123))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send escalation alert for %s: %v\n", threadID, err)
		return err
	}

	fmt.Printf("[MAILER] Escalation alert sent for %s\n", threadID)
	return nil
}
