package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsPublisher sends each event as one SQS message.
type sqsPublisher struct {
	id       string
	queueURL string
	fifo     bool
	api      sqsAPI
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.AWSConnection)
	if err != nil {
		return nil, err
	}

	var optFns []func(*sqs.Options)
	if ep := cfg.SQS.Endpoint; ep != "" {
		optFns = append(optFns, func(o *sqs.Options) { o.BaseEndpoint = aws.String(ep) })
	}
	return newSQSPublisherWithAPI(cfg.ID, cfg.SQS.QueueURL, sqs.NewFromConfig(awsCfg, optFns...), log), nil
}

func newSQSPublisherWithAPI(id, queueURL string, api sqsAPI, log Logger) *sqsPublisher {
	return &sqsPublisher{
		id:       id,
		queueURL: queueURL,
		fifo:     isFIFO(queueURL),
		api:      api,
		log:      ensureLogger(log),
	}
}

func (s *sqsPublisher) ID() string   { return s.id }
func (s *sqsPublisher) Type() string { return TypeSQS }

func (s *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			attributeEndpointID: {DataType: aws.String("String"), StringValue: aws.String(evt.EndpointID)},
		},
	}
	if s.fifo {
		in.MessageGroupId = aws.String(evt.EndpointID)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.api.SendMessage(ctx, in)
	if err != nil {
		logFailure(s.log, TypeSQS, s.id, err)
		return fmt.Errorf("send message to sqs: %w", err)
	}
	logDelivery(s.log, TypeSQS, s.id, evt, map[string]any{"message_id": aws.ToString(out.MessageId)})
	return nil
}
