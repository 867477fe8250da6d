// Package ses provides email delivery of recommendation summaries via AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "carrier-recommendation-engine/internal/config"
	"carrier-recommendation-engine/internal/models"
	"carrier-recommendation-engine/internal/utils"
)

// Service handles SES email operations.
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email.
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// SendEmailResult contains the result of sending an email.
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service.
func NewService(ctx context.Context) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	appCfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: appCfg.SESSenderEmail,
	}, nil
}

// SendEmail sends a basic email.
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.Logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.Logger.Info("Email sent",
		zap.String("to", params.To),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// summaryTemplate renders the recommendation summary email body.
var summaryTemplate = template.Must(template.New("summary").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Carrier Recommendations{{if .ClientName}} for {{.ClientName}}{{end}}</h2>
  {{if .Recommendations}}
  <ol>
    {{range .Recommendations}}
    <li>
      <strong>{{.Carrier}} - {{.Product}}</strong>{{if .Type}} ({{.Type}}){{end}}<br/>
      {{if .Rationale}}{{.Rationale}}<br/>{{end}}
      Match Score: {{printf "%.1f" .Score}}/100
      {{if .Portal.PortalURL}}<br/><a href="{{.Portal.PortalURL}}">Agent Portal</a>{{end}}
    </li>
    {{end}}
  </ol>
  {{else}}
  <p>No eligible carrier product was identified. Please refer to underwriting for manual review.</p>
  {{end}}
  {{if .FallbackTriggered}}
  <p><em>These picks were sourced from knowledge base retrieval; no explicit eligibility rules matched.</em></p>
  {{end}}
</body>
</html>`))

// SendRecommendationSummary emails a rendered recommendation result to an
// agent.
func (s *Service) SendRecommendationSummary(ctx context.Context, to, clientName string, result *models.RecommendationResponse) (*SendEmailResult, error) {
	data := struct {
		ClientName        string
		Recommendations   []models.Recommendation
		FallbackTriggered bool
	}{
		ClientName:        clientName,
		Recommendations:   result.Recommendations,
		FallbackTriggered: result.FallbackTriggered,
	}

	var html bytes.Buffer
	if err := summaryTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render summary email: %w", err)
	}

	subject := "Carrier Recommendations"
	if clientName != "" {
		subject = fmt.Sprintf("Carrier Recommendations for %s", clientName)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       to,
		Subject:  subject,
		HTMLBody: html.String(),
		TextBody: result.Explanation,
	})
}
