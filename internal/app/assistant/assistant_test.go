package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/core/coretest"
	"github.com/dkeye/Valley/internal/core/mocks"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setup(t *testing.T) (*core.RoomManager, *coretest.Recorder, *mocks.MockAIProvider, *Assistant) {
	t.Helper()
	rooms := core.NewRoomManager(core.DefaultLimits())
	_, err := rooms.Admit("AI", domain.RoomAI, "ann", domain.Member{Username: "Ann"})
	require.NoError(t, err)
	out := coretest.NewRecorder(rooms)
	provider := mocks.NewMockAIProvider(gomock.NewController(t))
	return rooms, out, provider, New(context.Background(), rooms, provider, out, time.Second, "")
}

func TestAskBroadcastsReply(t *testing.T) {
	rooms, out, provider, a := setup(t)
	provider.EXPECT().Complete(gomock.Any(), "hello", gomock.Len(0)).Return("Hi there!", nil)

	a.Ask("AI", "hello")
	a.Wait()

	msgs := out.OfType("ann", core.EvMessage)
	require.Len(t, msgs, 1)
	msg := msgs[0].Data.(domain.Message)
	assert.Equal(t, domain.KindAI, msg.Kind)
	assert.Equal(t, domain.AIAuthor, msg.Author)
	assert.Equal(t, "Hi there!", msg.Text)

	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "Hi there!"},
	}, rooms.Conversation("AI"))
	require.Len(t, rooms.History("AI"), 1)
}

func TestAskPassesPriorTurns(t *testing.T) {
	rooms, _, provider, a := setup(t)
	rooms.RecordExchange("AI", "q1", "a1")
	provider.EXPECT().Complete(gomock.Any(), "q2", []domain.Turn{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
	}).Return("a2", nil)

	a.Ask("AI", "q2")
	a.Wait()
	assert.Len(t, rooms.Conversation("AI"), 4)
}

func TestAskFailureSendsApology(t *testing.T) {
	rooms, out, provider, a := setup(t)
	provider.EXPECT().Complete(gomock.Any(), "hello", gomock.Any()).Return("", errors.New("down"))

	a.Ask("AI", "hello")
	a.Wait()

	msgs := out.OfType("ann", core.EvMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.KindSystem, msgs[0].Data.(domain.Message).Kind)
	assert.Equal(t, failureText, msgs[0].Data.(domain.Message).Text)
	assert.Empty(t, rooms.Conversation("AI"))
	assert.Empty(t, rooms.History("AI"))
}

func TestAskTimesOut(t *testing.T) {
	rooms := core.NewRoomManager(core.DefaultLimits())
	_, _ = rooms.Admit("AI", domain.RoomAI, "ann", domain.Member{Username: "Ann"})
	out := coretest.NewRecorder(rooms)
	provider := mocks.NewMockAIProvider(gomock.NewController(t))
	provider.EXPECT().Complete(gomock.Any(), "slow", gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ []domain.Turn) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	a := New(context.Background(), rooms, provider, out, 20*time.Millisecond, "Bot")

	a.Ask("AI", "slow")
	a.Wait()

	msgs := out.OfType("ann", core.EvMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Bot", msgs[0].Data.(domain.Message).Author)
}

func TestReplyDroppedWhenRoomGone(t *testing.T) {
	rooms, out, provider, a := setup(t)
	provider.EXPECT().Complete(gomock.Any(), "hello", gomock.Any()).DoAndReturn(
		func(context.Context, string, []domain.Turn) (string, error) {
			rooms.Delete("AI")
			return "late", nil
		})

	a.Ask("AI", "hello")
	a.Wait()
	assert.Empty(t, out.RoomEvents("AI"))
}

func TestAskAfterCloseIsDropped(t *testing.T) {
	_, out, _, a := setup(t)
	a.Close()

	a.Ask("AI", "hello")
	a.Wait()
	assert.Empty(t, out.OfType("ann", core.EvMessage))
}
