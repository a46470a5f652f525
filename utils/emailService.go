package utils

import (
	"fmt"
	"log"

	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers transactional mail through SendGrid.
type EmailSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	return &EmailSender{
		client: sendgrid.NewSendClient(cfg.SendgridApiKey),
		from:   mail.NewEmail(cfg.EmailFromName, cfg.EmailSender),
	}
}

func (s *EmailSender) send(toEmail, toName, subject, htmlBody string) error {
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(s.from, subject, to, "", htmlBody)

	resp, err := s.client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: status %d", toEmail, resp.StatusCode)
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return nil
}

// SendEnrollmentEmail welcomes a student to a freshly purchased course.
func (s *EmailSender) SendEnrollmentEmail(toEmail, userName, courseTitle string) error {
	subject := "You are enrolled in " + courseTitle
	body := getEmailTemplate("Enrollment Confirmed", fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your enrollment in <strong>%s</strong> is confirmed. The full course content is now unlocked for you.</p>
		<p>Happy learning!</p>
	`, userName, courseTitle))
	return s.send(toEmail, userName, subject, body)
}

// SendCertificateEmail notifies a student that their certificate is ready.
func (s *EmailSender) SendCertificateEmail(toEmail, userName, courseTitle, certificateURL string) error {
	subject := "Your certificate for " + courseTitle
	body := getEmailTemplate("Certificate Ready", fmt.Sprintf(`
		<h2>Congratulations %s!</h2>
		<p>You completed <strong>%s</strong> and your certificate is ready.</p>
		<a class="btn" href="%s">Download Certificate</a>
	`, userName, courseTitle, certificateURL))
	return s.send(toEmail, userName, subject, body)
}

// getEmailTemplate wraps body content in the shared HTML shell
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1E293B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1E293B; line-height: 1.6; }
			.content h2 { color: #1E293B; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2563EB; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>%s</h1>
			</div>
			<div class="content">
				%s
			</div>
			<div class="footer">
				This is an automated message. Please do not reply.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
