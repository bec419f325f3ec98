// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

func (s *Service) loadTemplates() {

	// Link Request Template
	s.templates["link_request"] = template.Must(template.New("link_request").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #10b981; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>New Care Link Request</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.RequesterName}}</strong> wants to link with your PillCare account to share medication schedules.</p>
        <p>Open the app to review and accept the request. Accepting shares your medication list and dose history; editing stays off until you approve it separately.</p>
        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            If you were not expecting this request, you can ignore it or decline in the app.
        </p>
    </div>
    <div class="footer">
        PillCare • Medication Care Coordination
    </div>
</div>
</body>
</html>
`))

	// Link Accepted Template
	s.templates["link_accepted"] = template.Must(template.New("link_accepted").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #10b981; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Care Link Accepted</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.AccepterName}}</strong> accepted your care link request. You can now see their medication schedule and dose history in PillCare.</p>
    </div>
    <div class="footer">
        PillCare • Medication Care Coordination
    </div>
</div>
</body>
</html>
`))

	// Missed Dose Alert Template
	s.templates["missed_dose"] = template.Must(template.New("missed_dose").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #ef4444; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .count { font-size: 32px; font-weight: bold; color: #ef4444; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Missed Dose Alert</h2>
    </div>
    <div class="content">
        <p>Hi {{.FamilyName}},</p>
        <p><strong>{{.SeniorName}}</strong> missed doses yesterday:</p>
        <p class="count">{{.MissedCount}}</p>
        <p>Open PillCare to see which medications were missed.</p>
    </div>
    <div class="footer">
        PillCare • Medication Care Coordination
    </div>
</div>
</body>
</html>
`))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	if s.config.Host == "" {
		log.Println("Email not configured, skipping send")
		return nil
	}

	var msg bytes.Buffer

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial error: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client error: %w", err)
		}
		defer client.Close()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("auth error: %w", err)
		}

		if err = client.Mail(s.config.From); err != nil {
			return fmt.Errorf("mail error: %w", err)
		}

		for _, rcpt := range email.To {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}

		_, err = w.Write(msg.Bytes())
		if err != nil {
			return fmt.Errorf("write error: %w", err)
		}

		err = w.Close()
		if err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	return smtp.SendMail(addr, auth, s.config.From, email.To, msg.Bytes())
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
	})
}

// ============================================
// Convenience Methods
// ============================================

// LinkRequestData holds data for link request emails
type LinkRequestData struct {
	RequesterName string
}

// SendLinkRequest sends a care link request email
func (s *Service) SendLinkRequest(to, requesterName string) error {
	if requesterName == "" {
		requesterName = "Someone"
	}
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[PillCare] %s wants to link with you", requesterName),
		"link_request",
		LinkRequestData{RequesterName: requesterName},
	)
}

// LinkAcceptedData holds data for link accepted emails
type LinkAcceptedData struct {
	AccepterName string
}

// SendLinkAccepted sends a link accepted email
func (s *Service) SendLinkAccepted(to, accepterName string) error {
	if accepterName == "" {
		accepterName = "Your contact"
	}
	return s.SendWithTemplate(
		[]string{to},
		"[PillCare] Your care link request was accepted",
		"link_accepted",
		LinkAcceptedData{AccepterName: accepterName},
	)
}

// MissedDoseData holds data for missed dose alert emails
type MissedDoseData struct {
	FamilyName  string
	SeniorName  string
	MissedCount int
}

// SendMissedDoseAlert sends a missed dose alert email
func (s *Service) SendMissedDoseAlert(to string, data MissedDoseData) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[PillCare] %s missed %d doses", data.SeniorName, data.MissedCount),
		"missed_dose",
		data,
	)
}

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

// EmailQueue handles async email sending
type EmailQueue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan bool
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

// NewEmailQueue creates a new email queue
func NewEmailQueue(service *Service, workers int) *EmailQueue {
	q := &EmailQueue{
		service: service,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan bool),
	}

	for i := 0; i < workers; i++ {
		go q.worker()
	}

	return q
}

func (q *EmailQueue) worker() {
	for {
		select {
		case email := <-q.queue:
			err := q.service.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
			if err != nil {
				log.Printf("Email send error: %v", err)
				if email.retries < 3 {
					email.retries++
					time.Sleep(time.Second * time.Duration(email.retries*2))
					q.queue <- email
				}
			}
		case <-q.done:
			return
		}
	}
}

// Enqueue adds an email to the queue
func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	q.queue <- &queuedEmail{
		to:           to,
		subject:      subject,
		templateName: templateName,
		data:         data,
		retries:      0,
	}
}

// Stop stops the email queue workers
func (q *EmailQueue) Stop() {
	close(q.done)
}
