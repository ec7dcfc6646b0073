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

	"storefront/internal/platform/config"
	"storefront/internal/platform/kafka"
	audit "storefront/pkg/platform/audit"
	auditkafka "storefront/pkg/platform/audit/store/kafka"
	"storefront/pkg/testutil/containers"
)

type KafkaAuditSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	client   *kgo.Client
	topic    string
}

func TestKafkaAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaAuditSuite))
}

func (s *KafkaAuditSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.topic = "storefront.audit.test"

	client, err := kafka.New(context.Background(), config.KafkaConfig{
		Brokers:    []string{s.redpanda.Broker},
		AuditTopic: s.topic,
	})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.client = client
}

func (s *KafkaAuditSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaAuditSuite) TestEnsureTopicIsIdempotent() {
	ctx := context.Background()
	admin := kadm.NewClient(s.client)
	s.Require().NoError(kafka.EnsureTopic(ctx, admin, s.topic))

	topics, err := admin.ListTopics(ctx, s.topic)
	s.Require().NoError(err)
	s.True(topics.Has(s.topic))
}

func (s *KafkaAuditSuite) TestAuditEventsRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := auditkafka.New(s.client, s.topic)
	s.Require().NoError(store.Append(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   string(audit.EventLoginFailed),
		Email:    "jane@example.com",
		State:    "profile_only",
		Reason:   "identity_missing",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	for {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "no audit record consumed")
		s.Require().Empty(fetches.Errors())

		var found *audit.Event
		fetches.EachRecord(func(r *kgo.Record) {
			if string(r.Key) != "jane@example.com" {
				return
			}
			var ev audit.Event
			s.Require().NoError(json.Unmarshal(r.Value, &ev))
			found = &ev
		})
		if found != nil {
			s.Equal("login_failed", found.Action)
			s.Equal("identity_missing", found.Reason)
			return
		}
	}
}
