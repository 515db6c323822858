package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailSender is what the comment and challenge flows depend on; satisfied by
// Mailer and by test fakes.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Mailer sends transactional mail through SES v2.
type Mailer struct {
	client *sesv2.Client
	from   string
}

func NewMailer(ctx context.Context, region, accessKey, secretKey, from string) (*Mailer, error) {
	creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Mailer{
		client: sesv2.NewFromConfig(awsCfg),
		from:   from,
	}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

// VerificationEmail builds the comment verification message. The link must be
// clicked within 24 hours.
func VerificationEmail(baseURL, token string) (subject, body string) {
	link := fmt.Sprintf("%s/api/public/verify-comment?token=%s", baseURL, token)
	subject = "Verify your comment on Mysteria Realm"
	body = fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>One more step!</h2>
  <p>Thanks for sharing your experience on Mysteria Realm. Click the button below to
  verify your email and publish your comment. The link expires in 24 hours.</p>
  <p style="margin: 30px 0;">
    <a href="%s" style="background-color: #8B5CF6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Verify my comment</a>
  </p>
  <p style="color: #666; font-size: 12px;">If you did not submit a comment, you can ignore this email.</p>
</div>`, link)
	return subject, body
}

// WinnerEmail builds the mystery-challenge winner notification.
func WinnerEmail(name string) (subject, body string) {
	subject = "Congratulations! You Won the Mystery Challenge!"
	body = fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1>Congratulations, %s!</h1>
  <p>Your theory has been selected as the winner of this week's Mystery Challenge.</p>
  <p>Your detective skills stood out among all submissions. You've earned the
  <strong>Detective Badge</strong> and gained +50 reputation points!</p>
  <p>Keep an eye out for next week's mystery. Can you solve it again?</p>
  <p>Best regards,<br><strong>The Mysteria Realm Team</strong></p>
</div>`, name)
	return subject, body
}
