package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/domain"
	"github.com/feral-file/title-scrutiny/internal/logger"
	mockspkg "github.com/feral-file/title-scrutiny/internal/mocks"
	jsprovider "github.com/feral-file/title-scrutiny/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testFeedMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mockspkg.MockNatsJetStream
	natsConn   *mockspkg.MockNatsConn
	jetStream  *mockspkg.MockJetStream
	consumer   *mockspkg.MockNatsConsumer
	consumeCtx *mockspkg.MockConsumeContext
}

func setupTestFeed(t *testing.T) *testFeedMocks {
	ctrl := gomock.NewController(t)
	return &testFeedMocks{
		ctrl:       ctrl,
		natsJS:     mockspkg.NewMockNatsJetStream(ctrl),
		natsConn:   mockspkg.NewMockNatsConn(ctrl),
		jetStream:  mockspkg.NewMockJetStream(ctrl),
		consumer:   mockspkg.NewMockNatsConsumer(ctrl),
		consumeCtx: mockspkg.NewMockConsumeContext(ctrl),
	}
}

func testConfig() jsprovider.Config {
	return jsprovider.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "DEED_CHANGES",
		SubjectPrefix:  "deeds",
		MaxReconnects:  10,
		ReconnectWait:  time.Second,
		ConnectionName: "title-scrutiny-test",
		MaxAge:         time.Hour,
		BufferSize:     4,
	}
}

func testEvent() domain.ChangeEvent {
	tag := "table2"
	return domain.ChangeEvent{
		ID:    "01HZX3Q2V8K9J6T5R4E3W2Q1P0",
		Type:  domain.ChangeInsert,
		Table: domain.DeedsTable,
		Record: &domain.Deed{
			ID:        "deed-1",
			DeedType:  "Sale",
			TableType: &tag,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestPublisher_EnsuresStreamAndPublishes(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	ctx := context.Background()
	mocks.natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(mocks.natsConn, mocks.jetStream, nil)
	mocks.jetStream.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg jetstream.StreamConfig) error {
			assert.Equal(t, "DEED_CHANGES", cfg.Name)
			assert.Equal(t, []string{"deeds.>"}, cfg.Subjects)
			assert.Equal(t, time.Hour, cfg.MaxAge)
			return nil
		})

	publisher, err := jsprovider.NewPublisher(ctx, testConfig(), mocks.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	event := testEvent()
	mocks.jetStream.EXPECT().Publish(gomock.Any(), "deeds.deeds.insert", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
			var decoded domain.ChangeEvent
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, event.ID, decoded.ID)
			assert.Equal(t, "deed-1", decoded.DeedID())
			return &jetstream.PubAck{Stream: "DEED_CHANGES", Sequence: 1}, nil
		})

	require.NoError(t, publisher.Publish(ctx, event))

	mocks.natsConn.EXPECT().Close()
	publisher.Close()
}

func TestPublisher_StreamFailureClosesConnection(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	mocks.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(mocks.natsConn, mocks.jetStream, nil)
	mocks.jetStream.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).Return(errors.New("no responders"))
	mocks.natsConn.EXPECT().Close()

	publisher, err := jsprovider.NewPublisher(context.Background(), testConfig(), mocks.natsJS, adapter.NewJSON())
	assert.Error(t, err)
	assert.Nil(t, publisher)
}

func TestPublisher_ConnectFailure(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	mocks.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, nil, errors.New("connection refused"))

	_, err := jsprovider.NewPublisher(context.Background(), testConfig(), mocks.natsJS, adapter.NewJSON())
	assert.ErrorContains(t, err, "failed to connect to NATS")
}

func TestPublisher_PublishError(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	mocks.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(mocks.natsConn, mocks.jetStream, nil)
	mocks.jetStream.EXPECT().EnsureStream(gomock.Any(), gomock.Any()).Return(nil)
	mocks.jetStream.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	publisher, err := jsprovider.NewPublisher(context.Background(), testConfig(), mocks.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), testEvent())
	assert.ErrorContains(t, err, "failed to publish event")
}

// subscribe wires a subscription and returns the captured message handler
func subscribe(t *testing.T, mocks *testFeedMocks, ctx context.Context) (<-chan domain.ChangeEvent, func(), adapter.MessageHandler) {
	t.Helper()

	var handler adapter.MessageHandler
	mocks.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(mocks.natsConn, mocks.jetStream, nil)
	mocks.jetStream.EXPECT().CreateOrUpdateConsumer(gomock.Any(), "DEED_CHANGES", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Empty(t, cfg.Durable)
			assert.Equal(t, jetstream.DeliverNewPolicy, cfg.DeliverPolicy)
			assert.Equal(t, jetstream.AckExplicitPolicy, cfg.AckPolicy)
			assert.Equal(t, "deeds.>", cfg.FilterSubject)
			assert.Positive(t, cfg.InactiveThreshold)
			return mocks.consumer, nil
		})
	mocks.consumer.EXPECT().Name().Return("ephemeral-1").AnyTimes()
	mocks.consumer.EXPECT().Consume(gomock.Any()).DoAndReturn(
		func(h adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			handler = h
			return mocks.consumeCtx, nil
		})

	subscriber, err := jsprovider.NewSubscriber(testConfig(), mocks.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	events, unsubscribe, err := subscriber.Subscribe(ctx)
	require.NoError(t, err)
	require.NotNil(t, handler)
	return events, unsubscribe, handler
}

func TestSubscriber_DeliversAndAcks(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	events, unsubscribe, handler := subscribe(t, mocks, context.Background())

	data, err := json.Marshal(testEvent())
	require.NoError(t, err)

	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return(data)
	msg.EXPECT().Ack().Return(nil)
	handler(msg)

	select {
	case ev := <-events:
		assert.Equal(t, "01HZX3Q2V8K9J6T5R4E3W2Q1P0", ev.ID)
		assert.Equal(t, domain.ChangeInsert, ev.Type)
		require.NotNil(t, ev.Record)
		assert.Equal(t, "table2", *ev.Record.TableType)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	mocks.consumeCtx.EXPECT().Stop()
	mocks.jetStream.EXPECT().DeleteConsumer(gomock.Any(), "DEED_CHANGES", "ephemeral-1").Return(nil)
	unsubscribe()
	unsubscribe()

	_, ok := <-events
	assert.False(t, ok)
}

func TestSubscriber_TerminatesInvalidMessages(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	events, unsubscribe, handler := subscribe(t, mocks, context.Background())

	msg := mockspkg.NewMockJetStreamMessage(mocks.ctrl)
	msg.EXPECT().Data().Return([]byte("not json"))
	msg.EXPECT().Subject().Return("deeds.deeds.insert")
	msg.EXPECT().Term().Return(nil)
	handler(msg)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.ID)
	default:
	}

	mocks.consumeCtx.EXPECT().Stop()
	mocks.jetStream.EXPECT().DeleteConsumer(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	unsubscribe()
}

func TestSubscriber_ContextCancelUnsubscribes(t *testing.T) {
	mocks := setupTestFeed(t)
	defer mocks.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	events, _, _ := subscribe(t, mocks, ctx)

	mocks.consumeCtx.EXPECT().Stop()
	mocks.jetStream.EXPECT().DeleteConsumer(gomock.Any(), "DEED_CHANGES", "ephemeral-1").Return(nil)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}
}
