package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// PublishAPI is the subset of the SNS client used here.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher hands login codes to an SNS topic. A subscriber on the topic
// (mail relay, lambda) is responsible for delivery to the user.
type Publisher struct {
	client   PublishAPI
	topicARN string
}

type codeMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func NewPublisher(awsCfg aws.Config, topicARN string) *Publisher {
	return &Publisher{client: sns.NewFromConfig(awsCfg), topicARN: topicARN}
}

func newPublisher(client PublishAPI, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

func (p *Publisher) SendCode(ctx context.Context, email, code string) error {
	body, err := json.Marshal(codeMessage{Email: email, Code: code})
	if err != nil {
		return fmt.Errorf("encode login code message: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("Your login code"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String("login_code")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish login code: %w", err)
	}
	return nil
}
