package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadataSettersCompose(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithClientMetadata(ctx, "203.0.113.7", "Firefox/Linux")

	assert.Equal(t, Metadata{RequestID: "req-1", ClientIP: "203.0.113.7", UserAgent: "Firefox/Linux"}, MetadataFrom(ctx))

	ctx = WithRequestID(ctx, "req-2")
	assert.Equal(t, "req-2", RequestID(ctx))
	assert.Equal(t, "203.0.113.7", ClientIP(ctx))
	assert.Equal(t, "Firefox/Linux", UserAgent(ctx))
}

func TestMetadataFrom_Empty(t *testing.T) {
	assert.Equal(t, Metadata{}, MetadataFrom(context.Background()))
	assert.Empty(t, RequestID(context.Background()))
}

func TestNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))

	before := time.Now()
	assert.False(t, Now(context.Background()).Before(before))
}
