package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/refoapp/backend/internal/config"
)

const resendAPIURL = "https://api.resend.com/emails"

// EmailService sends transactional email through the Resend API
type EmailService struct {
	apiKey     string
	fromEmail  string
	apiURL     string
	httpClient *http.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.ResendConfig) *EmailService {
	return &EmailService{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		apiURL:    resendAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendTaskVerifiedEmail tells a user their task was approved and the
// reward credited.
func (s *EmailService) SendTaskVerifiedEmail(toEmail, offerTitle string, reward float64) error {
	subject := "Your Refo Reward Has Been Credited"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #16A34A; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.amount { font-size: 24px; font-weight: bold; color: #16A34A; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Refo</h1>
			</div>
			<div class="content">
				<h2>Task Verified!</h2>
				<p>Your submission for <strong>%s</strong> has been verified.</p>
				<p>We've added <span class="amount">&#8377;%.2f</span> to your wallet.</p>
				<p>Keep completing offers to earn more rewards.</p>
				<p>Best regards,<br>The Refo Team</p>
			</div>
		</div>
	</body>
	</html>
	`, offerTitle, reward)

	return s.sendEmail(toEmail, subject, body)
}

// SendTaskRejectedEmail tells a user their submission was rejected and
// why.
func (s *EmailService) SendTaskRejectedEmail(toEmail, offerTitle, reason string) error {
	subject := "Update on Your Refo Submission"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #4F46E5; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.reason { background-color: #FEF2F2; border-left: 4px solid #DC2626; padding: 10px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Refo</h1>
			</div>
			<div class="content">
				<h2>Submission Not Approved</h2>
				<p>Unfortunately your submission for <strong>%s</strong> could not be verified.</p>
				<div class="reason"><p>%s</p></div>
				<p>You're welcome to review the offer instructions and try other offers.</p>
				<p>Best regards,<br>The Refo Team</p>
			</div>
		</div>
	</body>
	</html>
	`, offerTitle, reason)

	return s.sendEmail(toEmail, subject, body)
}

// SendPayoutProcessedEmail tells a user their payout request was
// approved or rejected.
func (s *EmailService) SendPayoutProcessedEmail(toEmail string, amount float64, approved bool, reason string) error {
	var subject, heading, detail string
	if approved {
		subject = "Your Refo Payout Is On Its Way"
		heading = "Payout Approved"
		detail = fmt.Sprintf("<p>Your payout of <strong>&#8377;%.2f</strong> has been approved and will arrive shortly.</p>", amount)
	} else {
		subject = "Update on Your Refo Payout Request"
		heading = "Payout Request Rejected"
		detail = fmt.Sprintf("<p>Your payout request of <strong>&#8377;%.2f</strong> was rejected.</p><p>Reason: %s</p><p>Your balance has not been affected.</p>", amount, reason)
	}

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #4F46E5; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Refo</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
				<p>Best regards,<br>The Refo Team</p>
			</div>
		</div>
	</body>
	</html>
	`, heading, detail)

	return s.sendEmail(toEmail, subject, body)
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(toEmail, name string) error {
	subject := "Welcome to Refo"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #4F46E5; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Refo</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>Welcome to Refo! Browse offers, complete tasks, and earn real rewards straight to your wallet.</p>
				<p>Share your referral link with friends to earn commissions too.</p>
				<p>Best regards,<br>The Refo Team</p>
			</div>
		</div>
	</body>
	</html>
	`, name)

	return s.sendEmail(toEmail, subject, body)
}

// sendEmail posts a message to the Resend API
func (s *EmailService) sendEmail(toEmail, subject, body string) error {
	if s.apiKey == "" {
		log.Printf("Email sending skipped (no API key configured): %s to %s", subject, toEmail)
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("Email sent to %s: %s", toEmail, subject)
	return nil
}
