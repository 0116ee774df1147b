package email

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/tuumbleweed/xerr"
)

const charset = "UTF-8"

func sendWithSES(ctx context.Context, msg message) (messageID string, e *xerr.Error) {
	var options []func(*awsconfig.LoadOptions) error
	if Cfg.SESRegion != "" {
		options = append(options, awsconfig.WithRegion(Cfg.SESRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return "", xerr.NewError(err, "load AWS config for SES", Cfg.SESRegion)
	}
	client := sesv2.NewFromConfig(awsCfg)

	output, err := client.SendEmail(ctx, sesInput(msg))
	if err != nil {
		return "", xerr.NewError(err, "send email with SES", msg.subject)
	}
	return aws.ToString(output.MessageId), nil
}

func sesInput(msg message) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.text != "" {
		body.Text = &types.Content{Data: aws.String(msg.text), Charset: aws.String(charset)}
	}
	if msg.html != "" {
		body.Html = &types.Content{Data: aws.String(msg.html), Charset: aws.String(charset)}
	}

	var headers []types.MessageHeader
	for _, name := range sortedKeys(msg.headers) {
		headers = append(headers, types.MessageHeader{Name: aws.String(name), Value: aws.String(msg.headers[name])})
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.sender),
		Destination:      &types.Destination{ToAddresses: msg.recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.subject), Charset: aws.String(charset)},
				Body:    body,
				Headers: headers,
			},
		},
	}
}

func sortedKeys(m map[string]string) (keys []string) {
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
