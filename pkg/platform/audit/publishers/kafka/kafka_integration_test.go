//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "floodrelief/pkg/platform/audit"
	"floodrelief/pkg/platform/audit/publishers/kafka"
	"floodrelief/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
	sink   *kafka.Sink
	topic  string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
	s.topic = "audit-events-test"
	sink, err := kafka.New([]string{s.broker.Broker}, s.topic)
	s.Require().NoError(err)
	s.sink = sink
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.sink != nil {
		s.sink.Close()
	}
}

func (s *KafkaSinkSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Require().NoError(s.sink.Ping(ctx))
	s.Require().NoError(s.sink.EnsureTopic(ctx, 3))

	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC),
		AccountID: 42,
		Subject:   "donation:7",
		Action:    string(audit.EventRecordCreated),
		RequestID: "req-1",
	}
	s.Require().NoError(s.sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	rec := records[0]
	s.Equal("42", string(rec.Key))

	var got map[string]any
	s.Require().NoError(json.Unmarshal(rec.Value, &got))
	s.Equal("record_created", got["action"])
	s.Equal("compliance", got["category"])
	s.Equal("donation:7", got["subject"])
	s.EqualValues(42, got["account_id"])
}

func (s *KafkaSinkSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Require().NoError(s.sink.EnsureTopic(ctx, 2))
	s.Require().NoError(s.sink.EnsureTopic(ctx, 2))

	client, err := kgo.NewClient(kgo.SeedBrokers(s.broker.Broker))
	s.Require().NoError(err)
	defer client.Close()

	details, err := kadm.NewClient(client).ListTopics(ctx, s.topic)
	s.Require().NoError(err)
	s.Require().True(details.Has(s.topic))
}
