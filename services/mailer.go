package services

// Mailer sends best-effort notification mail. Services call it outside any
// transaction and ignore failures; a nil Mailer disables notifications.
type Mailer interface {
	SendEnrollmentEmail(toEmail, userName, courseTitle string) error
	SendCertificateEmail(toEmail, userName, courseTitle, certificateURL string) error
}
