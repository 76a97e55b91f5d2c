// pkg/aws/kinesis.go
package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
)

type KinesisClient struct {
	client     kinesisiface.KinesisAPI
	streamName string
}

func NewKinesisClient(sess *session.Session, streamName string) *KinesisClient {
	return &KinesisClient{
		client:     kinesis.New(sess),
		streamName: streamName,
	}
}

// NewKinesisClientWithAPI is used by tests to inject a fake.
func NewKinesisClientWithAPI(api kinesisiface.KinesisAPI, streamName string) *KinesisClient {
	return &KinesisClient{client: api, streamName: streamName}
}

// PutRecord writes one record. Records sharing a partition key keep their order.
func (k *KinesisClient) PutRecord(ctx context.Context, partitionKey string, data []byte) error {
	if partitionKey == "" {
		partitionKey = "default"
	}
	input := &kinesis.PutRecordInput{
		Data:         data,
		PartitionKey: aws.String(partitionKey),
		StreamName:   aws.String(k.streamName),
	}

	result, err := k.client.PutRecordWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to put record to Kinesis: %w", err)
	}

	slog.Debug("event published to Kinesis", "stream", k.streamName, "sequence", aws.StringValue(result.SequenceNumber))
	return nil
}
