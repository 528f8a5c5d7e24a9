package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorName(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemActor, ActorName(ctx))

	ctx = WithActor(ctx, &Actor{UserID: "clerk-7", Source: "api"})
	assert.Equal(t, "clerk-7", ActorName(ctx))
	assert.Equal(t, "clerk-7", GetUserID(ctx))
}

func TestTrace(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Nil(t, GetTrace(context.Background()))

	tc := NewTrace(OriginWorker)
	ctx := WithTrace(context.Background(), tc)
	assert.Equal(t, tc.TraceID, TraceID(ctx))
	assert.Equal(t, OriginWorker, GetTrace(ctx).Origin)
	assert.NotEqual(t, tc.TraceID, NewTrace(OriginWorker).TraceID)
}
