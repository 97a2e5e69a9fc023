package repository

import (
	"context"
	"testing"
	"time"

	"FinCorr/internal/domain/models"

	"github.com/stretchr/testify/require"
)

type sent struct {
	topic string
	key   []byte
	value interface{}
}

type fakeProducer struct {
	sent   []sent
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.sent = append(f.sent, sent{topic: topic, key: key, value: value})
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherKeysBySymbol(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaPublisher{producer: fp, topic: "fincorr.price_updates"}

	ev := models.PriceUpdateEvent{Symbol: "2330.TW", Source: models.SourceTWSE, Points: 3, UpdatedAt: time.Now()}
	require.NoError(t, p.PublishPriceUpdate(context.Background(), ev))
	require.NoError(t, p.PublishMessage(context.Background(), "fincorr.logs", []string{"x"}))
	require.NoError(t, p.Close())

	require.Len(t, fp.sent, 2)
	require.Equal(t, "fincorr.price_updates", fp.sent[0].topic)
	require.Equal(t, "2330.TW", string(fp.sent[0].key))
	require.Equal(t, ev, fp.sent[0].value)
	require.Equal(t, "fincorr.logs", fp.sent[1].topic)
	require.Nil(t, fp.sent[1].key)
	require.True(t, fp.closed)
}
