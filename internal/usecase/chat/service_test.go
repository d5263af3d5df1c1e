package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/analysis"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/location"
	"github.com/kailas-cloud/outing/internal/domain/session"
	"github.com/kailas-cloud/outing/internal/metrics"
	"github.com/kailas-cloud/outing/internal/usecase/compose"
)

func TestHandleMessage_ReadyRunsTools(t *testing.T) {
	f := newFixture(playground("A놀이터", 37.50, 127.03), playground("B키즈카페", 37.51, 127.04))
	ctx := context.Background()

	reply, err := f.svc.HandleMessage(ctx, "강남 놀이터 찾아줘", "")
	require.NoError(t, err)

	_, err = uuid.Parse(reply.ConversationID)
	assert.NoError(t, err, "a fresh id is minted")
	assert.Equal(t, analysis.Ready, reply.Intent)
	assert.Equal(t, TypeText, reply.Type)
	assert.Nil(t, reply.MapData)
	assert.Equal(t, []string{ToolWeather, ToolSearch}, reply.ToolsUsed)

	require.Equal(t, 1, f.search.calls())
	filters := f.search.requests[0].Filters()
	assert.Equal(t, location.Seoul, filters.Value(facility.FieldRegionCity))
	assert.Equal(t, "강남구", filters.Value(facility.FieldRegionGu))

	weatherAt := strings.Index(reply.Content, "날씨")
	facilityAt := strings.Index(reply.Content, "A놀이터")
	require.GreaterOrEqual(t, weatherAt, 0)
	assert.Greater(t, facilityAt, weatherAt, "weather line precedes facilities")

	sess, err := f.store.Get(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, session.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, session.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, "서울특별시 강남구", sess.CachedLocation)
	require.True(t, sess.HasRetrieval())
	assert.Len(t, sess.LastRetrieval.Documents, 2)
}

func TestHandleMessage_EmotionUsesNoTools(t *testing.T) {
	f := newFixture()

	reply, err := f.svc.HandleMessage(context.Background(), "고마워", "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", reply.ConversationID)
	assert.Equal(t, analysis.Emotion, reply.Intent)
	assert.Equal(t, "천만에요! 😊 더 도움이 필요하시면 언제든 말씀해주세요!", reply.Content)
	assert.NotNil(t, reply.ToolsUsed)
	assert.Empty(t, reply.ToolsUsed)
	assert.Zero(t, f.search.calls())
	assert.Zero(t, f.weather.calls())
}

func TestHandleMessage_AskLocation(t *testing.T) {
	f := newFixture()

	reply, err := f.svc.HandleMessage(context.Background(), "아이랑 놀 곳 추천해줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, analysis.NeedLocation, reply.Intent)
	assert.Equal(t, compose.AskLocation, reply.Content)
	assert.Zero(t, f.search.calls())

	sess, err := f.store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2, "history is persisted for clarifying turns")
}

func TestHandleMessage_AskNearby(t *testing.T) {
	f := newFixture()

	reply, err := f.svc.HandleMessage(context.Background(), "근처에 아이랑 갈만한 곳", "c1")
	require.NoError(t, err)

	assert.Equal(t, analysis.NeedLocation, reply.Intent)
	assert.Equal(t, compose.AskNearby, reply.Content)
	assert.Zero(t, f.search.calls())
}

func TestHandleMessage_MapWithoutResults(t *testing.T) {
	f := newFixture()

	reply, err := f.svc.HandleMessage(context.Background(), "지도 보여줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, TypeText, reply.Type)
	assert.Nil(t, reply.MapData)
	assert.Equal(t, compose.MapNoResults, reply.Content)
	assert.Empty(t, reply.ToolsUsed)
}

func TestHandleMessage_MapAfterEmptySearch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.HandleMessage(ctx, "강남 놀이터 찾아줘", "c1")
	require.NoError(t, err)
	require.Equal(t, 1, f.search.calls())

	reply, err := f.svc.HandleMessage(ctx, "지도 보여줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, analysis.NeedLocation, reply.Intent)
	assert.Equal(t, TypeText, reply.Type)
	assert.Nil(t, reply.MapData)
	assert.Equal(t, compose.MapNoResults, reply.Content)
	assert.Empty(t, reply.ToolsUsed)
	assert.Equal(t, 1, f.search.calls(), "a map request is not a new search")
}

func TestHandleMessage_MapAfterSearch(t *testing.T) {
	f := newFixture(playground("A놀이터", 37.50, 127.03), playground("B키즈카페", 37.52, 127.05))
	ctx := context.Background()

	_, err := f.svc.HandleMessage(ctx, "강남 놀이터 찾아줘", "c1")
	require.NoError(t, err)

	reply, err := f.svc.HandleMessage(ctx, "지도로 보여줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, analysis.ShowMap, reply.Intent)
	assert.Equal(t, TypeMap, reply.Type)
	require.NotNil(t, reply.MapData)
	assert.Len(t, reply.MapData.Markers, 2)
	assert.InDelta(t, 37.51, reply.MapData.Center.Lat, 1e-9)
	assert.Equal(t, []string{ToolMap}, reply.ToolsUsed)
	assert.Equal(t, 1, f.search.calls(), "map turns do not re-query")
}

func TestHandleMessage_MapWithoutCoordinates(t *testing.T) {
	f := newFixture(playground("A놀이터", 0, 0))
	ctx := context.Background()

	_, err := f.svc.HandleMessage(ctx, "강남 놀이터 찾아줘", "c1")
	require.NoError(t, err)
	reply, err := f.svc.HandleMessage(ctx, "위치 알려줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, TypeText, reply.Type)
	assert.Nil(t, reply.MapData)
	assert.Equal(t, compose.MapNoLocations, reply.Content)
}

func TestHandleMessage_FollowUpUsesHistory(t *testing.T) {
	f := newFixture(playground("A놀이터", 0, 0))
	ctx := context.Background()

	_, err := f.svc.HandleMessage(ctx, "송파 키즈카페 알려줘", "c1")
	require.NoError(t, err)
	reply, err := f.svc.HandleMessage(ctx, "내일은 어때?", "c1")
	require.NoError(t, err)

	assert.Equal(t, analysis.Ready, reply.Intent)
	require.Equal(t, 2, f.weather.calls())
	last := f.weather.lookup[1]
	assert.Equal(t, "송파구", last.loc.District)
	assert.Equal(t, location.DateTomorrow, last.date)
}

func TestHandleMessage_ClearHistoryStartsFresh(t *testing.T) {
	f := newFixture(playground("A놀이터", 0, 0))
	ctx := context.Background()

	_, err := f.svc.HandleMessage(ctx, "강남 놀이터 찾아줘", "c1")
	require.NoError(t, err)
	require.NoError(t, f.svc.ClearHistory(ctx, "c1"))

	reply, err := f.svc.HandleMessage(ctx, "또 알려줘", "c1")
	require.NoError(t, err)
	assert.Equal(t, analysis.NeedLocation, reply.Intent, "cleared history must not leak the old location")

	sess, err := f.store.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "또 알려줘", sess.Messages[0].Content)
}

func TestHandleMessage_ToolPanicBecomesApology(t *testing.T) {
	f := newFixture()
	f.search.panicMsg = "index exploded"
	before := testutil.ToFloat64(metrics.ChatTurnsTotal.WithLabelValues("ready", "apology"))

	reply, err := f.svc.HandleMessage(context.Background(), "강남 놀이터 찾아줘", "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", reply.ConversationID)
	assert.Equal(t, compose.Apology, reply.Content)
	assert.Equal(t, TypeText, reply.Type)
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.ChatTurnsTotal.WithLabelValues("ready", "apology")), 1e-9)

	sess, err := f.store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2)
	assert.Empty(t, sess.CachedLocation, "failed tool runs do not cache the location")
}

func TestHandleMessage_StoreFailures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		f := newFixture()
		f.store.getErr = errors.New("redis down")
		reply, err := f.svc.HandleMessage(context.Background(), "고마워", "")
		require.NoError(t, err)
		assert.Equal(t, compose.Apology, reply.Content)
		assert.NotEmpty(t, reply.ConversationID)
	})

	t.Run("save", func(t *testing.T) {
		f := newFixture()
		f.store.saveErr = errors.New("redis down")
		reply, err := f.svc.HandleMessage(context.Background(), "고마워", "c1")
		require.NoError(t, err)
		assert.Equal(t, compose.Apology, reply.Content)
		assert.Equal(t, "c1", reply.ConversationID)
	})
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	f := newFixture()
	_, err := f.svc.HandleMessage(context.Background(), "   ", "c1")
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestHandleMessage_SerializesSameConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := range turns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.HandleMessage(ctx, fmt.Sprintf("고마워 %d", i), "shared")
		}()
	}
	wg.Wait()

	sess, err := f.store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 2*turns, "no turn may overwrite another")
	assert.Zero(t, f.svc.locks.size())
}

func TestSessionCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := f.svc.HandleMessage(ctx, "고마워", id)
		require.NoError(t, err)
	}
	n, err := f.svc.SessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
