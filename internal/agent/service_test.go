package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaphkiel07/Pawtine2/internal/domain"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
)

const ownerID = "owner-1"

var chatNow = time.Date(2025, time.March, 13, 9, 0, 0, 0, time.UTC)

type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	seen  [][]Message
}

func (c *stubCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, messages)
	return c.reply, c.err
}

func (c *stubCompleter) last() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) == 0 {
		return nil
	}
	return c.seen[len(c.seen)-1]
}

type chatFixture struct {
	svc       *Service
	completer *stubCompleter
	repo      *store.MemoryStore
}

func newChatFixture(t *testing.T, withDog bool) *chatFixture {
	t.Helper()
	clock := schedule.FixedClock(chatNow)
	repo := store.NewMemory(clock)
	ctx := context.Background()
	require.NoError(t, repo.UpsertUser(ctx, &domain.User{ID: ownerID, CreatedAt: chatNow}))
	if withDog {
		require.NoError(t, repo.UpsertDog(ctx, &domain.Dog{ID: "dog-1", UserID: ownerID, Name: "Luna", CreatedAt: chatNow}))
	}

	completer := &stubCompleter{}
	routineSvc := routines.NewService(repo, routines.WithClock(clock))
	return &chatFixture{
		svc:       NewService(completer, routineSvc, clock, nil),
		completer: completer,
		repo:      repo,
	}
}

func (f *chatFixture) routines(t *testing.T) []domain.Routine {
	t.Helper()
	list, err := f.repo.ListRoutines(context.Background(), store.RoutineFilter{DogID: "dog-1"})
	require.NoError(t, err)
	return list
}

func TestChatWithoutCompleterReturnsSetupHint(t *testing.T) {
	svc := NewService(nil, nil, schedule.FixedClock(chatNow), nil)

	resp, err := svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, SetupHint, resp.Message)
	assert.Nil(t, resp.Schedule)
	assert.False(t, svc.Enabled())
}

func TestChatRejectsEmptyConversation(t *testing.T) {
	f := newChatFixture(t, true)

	_, err := f.svc.Chat(context.Background(), ownerID, nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestChatBuildsPromptWithCurrentTime(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "Sounds good", "schedule": null}`

	long := make([]rune, MaxMessageLength+50)
	for i := range long {
		long[i] = 'a'
	}
	_, err := f.svc.Chat(context.Background(), ownerID, []Message{
		{Role: "tool", Content: string(long)},
		{Role: RoleAssistant, Content: "Woof"},
	})
	require.NoError(t, err)

	sent := f.completer.last()
	require.Len(t, sent, 3)
	assert.Equal(t, RoleSystem, sent[0].Role)
	assert.Contains(t, sent[0].Content, "The current time is: 2025-03-13T09:00:00Z.")
	assert.NotContains(t, sent[0].Content, "{{CURRENT_TIME}}")
	assert.Equal(t, RoleUser, sent[1].Role)
	assert.Len(t, []rune(sent[1].Content), MaxMessageLength)
	assert.Equal(t, RoleAssistant, sent[2].Role)
}

func TestChatSchedulesRoutineFromReply(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = "```json\n" +
		`{"message": "Walk booked!", "schedule": {"type": "walk", "label": "", "scheduled_time": "2025-03-14T10:00:00Z"}}` +
		"\n```"

	resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "walk tomorrow at 10am"}})
	require.NoError(t, err)
	assert.Equal(t, "Walk booked!", resp.Message)
	require.NotNil(t, resp.Schedule)
	assert.True(t, resp.Schedule.Scheduled)
	assert.NotEmpty(t, resp.Schedule.RoutineID)

	list := f.routines(t)
	require.Len(t, list, 1)
	assert.Equal(t, domain.RoutineWalk, list[0].Type)
	assert.Equal(t, "Luna walk", list[0].Label)
	assert.True(t, list[0].ScheduledTime.Equal(time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)))
}

func TestChatUnknownTypeBecomesCustom(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "Done", "schedule": {"type": "groom", "label": "Brush coat", "scheduled_time": "2025-03-13T15:30:00Z"}}`

	resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "brush later"}})
	require.NoError(t, err)
	require.NotNil(t, resp.Schedule)
	assert.True(t, resp.Schedule.Scheduled)
	assert.Equal(t, string(domain.RoutineCustom), resp.Schedule.Type)
	assert.Equal(t, "Brush coat", resp.Schedule.Label)
}

func TestChatScheduleFailuresAreReported(t *testing.T) {
	t.Run("no dog", func(t *testing.T) {
		f := newChatFixture(t, false)
		f.completer.reply = `{"message": "On it", "schedule": {"type": "feed", "scheduled_time": "2025-03-13T18:00:00Z"}}`

		resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "dinner at 6"}})
		require.NoError(t, err)
		assert.Equal(t, "On it", resp.Message)
		require.NotNil(t, resp.Schedule)
		assert.False(t, resp.Schedule.Scheduled)
		assert.NotEmpty(t, resp.Schedule.Reason)
	})

	t.Run("bad time", func(t *testing.T) {
		f := newChatFixture(t, true)
		f.completer.reply = `{"message": "On it", "schedule": {"type": "feed", "scheduled_time": "tomorrow-ish"}}`

		resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "dinner soon"}})
		require.NoError(t, err)
		require.NotNil(t, resp.Schedule)
		assert.False(t, resp.Schedule.Scheduled)
		assert.Empty(t, f.routines(t))
	})
}

func TestChatWithoutScheduledTimeSkipsScheduling(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = `{"message": "Water twice a day.", "schedule": {"type": "water", "scheduled_time": ""}}`

	resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "how often water?"}})
	require.NoError(t, err)
	assert.Equal(t, "Water twice a day.", resp.Message)
	assert.Nil(t, resp.Schedule)
	assert.Empty(t, f.routines(t))
}

func TestChatNonJSONReplyIsReturnedRaw(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = "Just plain advice."

	resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "tips?"}})
	require.NoError(t, err)
	assert.Equal(t, "Just plain advice.", resp.Message)
}

func TestChatEmptyReplyUsesFallback(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.reply = "  "

	resp, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "?"}})
	require.NoError(t, err)
	assert.Equal(t, "I could not find a helpful answer, but I am still here to help!", resp.Message)
	assert.Nil(t, resp.Schedule)
}

func TestChatPropagatesUpstreamError(t *testing.T) {
	f := newChatFixture(t, true)
	f.completer.err = errors.Join(ErrUpstream, errors.New("boom"))

	_, err := f.svc.Chat(context.Background(), ownerID, []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrUpstream)
}
