// internal/common/aws/ses.go
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESClient struct {
	client SESAPI
	from   string
}

func NewSESClient(cfg awssdk.Config, from string) *SESClient {
	return &SESClient{client: ses.NewFromConfig(cfg), from: from}
}

// NewSESClientWithAPI builds a client around an existing SESAPI.
func NewSESClientWithAPI(api SESAPI, from string) *SESClient {
	return &SESClient{client: api, from: from}
}

// SendEmail sends a text and HTML email and returns the SES message id.
func (s *SESClient) SendEmail(ctx context.Context, to []string, subject, textBody, htmlBody string) (string, error) {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    awssdk.String(subject),
				Charset: awssdk.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    awssdk.String(textBody),
					Charset: awssdk.String("UTF-8"),
				},
			},
		},
		Source: awssdk.String(s.from),
	}
	if htmlBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    awssdk.String(htmlBody),
			Charset: awssdk.String("UTF-8"),
		}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}
