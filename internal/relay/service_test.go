package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/slackrelay/internal/chat"
	"github.com/memohai/slackrelay/internal/conversation"
	"github.com/memohai/slackrelay/internal/credentials"
	"github.com/memohai/slackrelay/internal/logger"
)

type fakeCompleter struct {
	mu      sync.Mutex
	result  func(history []conversation.Turn) chat.Result
	history [][]conversation.Turn
}

func (f *fakeCompleter) Complete(_ context.Context, history []conversation.Turn, _ string) chat.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, history)
	if f.result == nil {
		return chat.Result{Text: fmt.Sprintf("reply to %s", history[len(history)-1].Text)}
	}
	return f.result(history)
}

type sentMessage struct {
	token, channel, text string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) PostText(_ context.Context, token, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{token: token, channel: channelID, text: text})
	return nil
}

const fallbackReply = "I couldn't generate a response."

func newTestService(t *testing.T, completer Completer, messenger *fakeMessenger, staticToken string) (*Service, *conversation.MemoryStore, *credentials.MemoryStore) {
	t.Helper()
	windows := conversation.NewMemoryStore(5)
	creds := credentials.NewMemoryStore()
	require.NoError(t, creds.Put(context.Background(), credentials.Installation{TeamID: "T1", AccessToken: "xoxb-t1"}))
	svc := NewService(logger.Discard(), windows, completer, credentials.NewResolver(creds, staticToken), messenger, fallbackReply)
	return svc, windows, creds
}

func TestHandleMessage_RepliesWithInstalledToken(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	svc, _, _ := newTestService(t, &fakeCompleter{}, messenger, "")

	out, err := svc.HandleMessage(context.Background(), Message{TeamID: "T1", ChannelID: "C1", Text: "hi"})
	require.NoError(t, err)

	assert.True(t, out.Delivered)
	assert.Equal(t, "reply to hi", out.Reply)
	require.Len(t, out.Window, 2)
	assert.Equal(t, conversation.RoleUser, out.Window[0].Role)
	assert.Equal(t, conversation.RoleModel, out.Window[1].Role)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, sentMessage{token: "xoxb-t1", channel: "C1", text: "reply to hi"}, messenger.sent[0])
}

func TestHandleMessage_CompleterSeesUpdatedWindow(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{}
	svc, _, _ := newTestService(t, completer, &fakeMessenger{}, "")
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, Message{TeamID: "T1", ChannelID: "C1", Text: "first"})
	require.NoError(t, err)
	_, err = svc.HandleMessage(ctx, Message{TeamID: "T1", ChannelID: "C1", Text: "second"})
	require.NoError(t, err)

	require.Len(t, completer.history, 2)
	last := completer.history[1]
	require.Len(t, last, 3)
	assert.Equal(t, "first", last[0].Text)
	assert.Equal(t, "reply to first", last[1].Text)
	assert.Equal(t, "second", last[2].Text)
}

func TestHandleMessage_WindowKeepsFiveMostRecentTurns(t *testing.T) {
	t.Parallel()

	svc, windows, _ := newTestService(t, &fakeCompleter{}, &fakeMessenger{}, "")
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		_, err := svc.HandleMessage(ctx, Message{TeamID: "T1", ChannelID: "C1", Text: "hi"})
		require.NoError(t, err)
	}

	window, err := windows.Get(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, window, 5)
	assert.Equal(t, conversation.RoleModel, window[0].Role)
	assert.Equal(t, conversation.RoleModel, window[4].Role)
}

func TestHandleMessage_CompletionFailureUsesFallback(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{result: func([]conversation.Turn) chat.Result {
		return chat.Result{Failure: chat.FailureProviderError, Err: errors.New("boom")}
	}}
	messenger := &fakeMessenger{}
	svc, _, _ := newTestService(t, completer, messenger, "")

	out, err := svc.HandleMessage(context.Background(), Message{TeamID: "T1", ChannelID: "C1", Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, fallbackReply, out.Reply)
	assert.Equal(t, chat.FailureProviderError, out.Failure)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, fallbackReply, messenger.sent[0].text)
	assert.Equal(t, fallbackReply, out.Window[1].Text)
}

func TestHandleMessage_SendFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, &fakeCompleter{}, &fakeMessenger{err: errors.New("channel_not_found")}, "")

	out, err := svc.HandleMessage(context.Background(), Message{TeamID: "T1", ChannelID: "C1", Text: "hi"})
	require.NoError(t, err)
	assert.False(t, out.Delivered)
	assert.Len(t, out.Window, 2)
}

func TestHandleMessage_UnknownWorkspace(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	svc, windows, _ := newTestService(t, &fakeCompleter{}, messenger, "")

	_, err := svc.HandleMessage(context.Background(), Message{TeamID: "T404", ChannelID: "C1", Text: "hi"})
	require.ErrorIs(t, err, credentials.ErrNotInstalled)
	assert.Empty(t, messenger.sent)

	window, _ := windows.Get(context.Background(), "C1")
	assert.Len(t, window, 2)
}

func TestHandleMessage_UnknownWorkspaceWithStaticToken(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	svc, _, _ := newTestService(t, &fakeCompleter{}, messenger, "xoxb-static")

	out, err := svc.HandleMessage(context.Background(), Message{TeamID: "T404", ChannelID: "C1", Text: "hi"})
	require.NoError(t, err)
	assert.True(t, out.Delivered)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "xoxb-static", messenger.sent[0].token)
}

func TestHandleMessage_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, windows, _ := newTestService(t, &fakeCompleter{}, &fakeMessenger{}, "")
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, Message{TeamID: "T1", Text: "hi"})
	assert.ErrorIs(t, err, conversation.ErrChannelRequired)

	_, err = svc.HandleMessage(ctx, Message{TeamID: "T1", ChannelID: "C1", Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	ids, _ := windows.Channels(ctx)
	assert.Empty(t, ids)
}

func TestResetWindow(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, &fakeCompleter{}, &fakeMessenger{}, "")
	ctx := context.Background()
	_, err := svc.HandleMessage(ctx, Message{TeamID: "T1", ChannelID: "C1", Text: "hi"})
	require.NoError(t, err)

	channels, err := svc.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1"}, channels)

	require.NoError(t, svc.ResetWindow(ctx, "C1"))
	window, err := svc.Window(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestHandleMessage_LogsSender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	completer := &fakeCompleter{result: func([]conversation.Turn) chat.Result {
		return chat.Result{Failure: chat.FailureEmptyResponse}
	}}
	svc := NewService(logger.New(&buf, "info", "text"), conversation.NewMemoryStore(5), completer,
		credentials.NewResolver(credentials.NewMemoryStore(), "xoxb-static"), &fakeMessenger{}, fallbackReply)

	_, err := svc.HandleMessage(context.Background(), Message{TeamID: "T1", ChannelID: "C1", UserID: "U42", Text: "hi"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "user_id=U42")
}
