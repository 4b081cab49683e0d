package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsPublisher publishes each event to an SNS topic.
type snsPublisher struct {
	id       string
	topicARN string
	fifo     bool
	api      snsAPI
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.AWSConnection)
	if err != nil {
		return nil, err
	}

	var optFns []func(*sns.Options)
	if ep := cfg.SNS.Endpoint; ep != "" {
		optFns = append(optFns, func(o *sns.Options) { o.BaseEndpoint = aws.String(ep) })
	}
	return newSNSPublisherWithAPI(cfg.ID, cfg.SNS.TopicARN, sns.NewFromConfig(awsCfg, optFns...), log), nil
}

func newSNSPublisherWithAPI(id, topicARN string, api snsAPI, log Logger) *snsPublisher {
	return &snsPublisher{
		id:       id,
		topicARN: topicARN,
		fifo:     isFIFO(topicARN),
		api:      api,
		log:      ensureLogger(log),
	}
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return TypeSNS }

func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	in := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(msg),
		MessageAttributes: map[string]types.MessageAttributeValue{
			attributeEndpointID: {DataType: aws.String("String"), StringValue: aws.String(evt.EndpointID)},
		},
	}
	if s.fifo {
		in.MessageGroupId = aws.String(evt.EndpointID)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.api.Publish(ctx, in)
	if err != nil {
		logFailure(s.log, TypeSNS, s.id, err)
		return fmt.Errorf("publish to sns: %w", err)
	}
	logDelivery(s.log, TypeSNS, s.id, evt, map[string]any{"message_id": aws.ToString(out.MessageId)})
	return nil
}
