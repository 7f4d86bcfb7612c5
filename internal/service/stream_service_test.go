package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/llm/registry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	deltas    []string
	streamErr error

	mu      sync.Mutex
	calls   int
	history []llm.Message
	opts    llm.Options
}

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return strings.Join(p.deltas, ""), p.streamErr
}

func (p *fakeProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.StreamHandler, options ...llm.Option) (string, error) {
	p.mu.Lock()
	p.calls++
	p.history = history
	for _, opt := range options {
		opt(&p.opts)
	}
	p.mu.Unlock()

	if p.streamErr != nil {
		return "", p.streamErr
	}
	var full strings.Builder
	for _, d := range p.deltas {
		if err := onDelta(d); err != nil {
			return full.String(), err
		}
		full.WriteString(d)
	}
	return full.String(), nil
}

type fakeResolver struct {
	provider *fakeProvider
}

func (r *fakeResolver) Resolve(modelID string) (llm.Provider, string, bool) {
	known := registry.Known(modelID)
	upstream := modelID
	if !known {
		upstream = registry.DefaultModel
	}
	return r.provider, upstream, known
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newStreamHarness(provider *fakeProvider) (*fakeFactory, *capturingPublisher, IStreamService) {
	factory := newFakeFactory()
	activity := &capturingPublisher{}
	svc := NewStreamService(factory, &fakeResolver{provider: provider}, activity, nopLogger{})
	return factory, activity, svc
}

func collectEvents(events *[]dto.StreamEvent) func(dto.StreamEvent) error {
	return func(ev dto.StreamEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func TestStreamServiceEmitsTokensThenDone(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"Hel", "lo ", "world"}}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "hi"}},
	}, collectEvents(&events))
	require.NoError(t, err)

	require.Len(t, events, 4)
	for i, want := range []string{"Hel", "lo ", "world"} {
		assert.Equal(t, "token", events[i].Type)
		assert.Equal(t, want, events[i].Delta)
	}
	assert.Equal(t, "done", events[3].Type)
	assert.Equal(t, constant.DefaultModel, events[3].Model)
}

func TestStreamServicePrependsSystemPreamble(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"ok"}}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{
			{Role: constant.ChatMessageRoleUser, Content: "first"},
			{Role: constant.ChatMessageRoleAssistant, Content: "reply"},
			{Role: constant.ChatMessageRoleUser, Content: "second"},
		},
	}, collectEvents(&events))
	require.NoError(t, err)

	require.Len(t, provider.history, 4)
	assert.Equal(t, constant.ChatMessageRoleSystem, provider.history[0].Role)
	assert.Equal(t, constant.SystemPreamble, provider.history[0].Content)
	assert.Equal(t, "second", provider.history[3].Content)
}

func TestStreamServiceEmptyMessagesRejectedBeforeStreaming(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"never"}}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{}, collectEvents(&events))

	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Status)
	assert.Empty(t, events)
	assert.Zero(t, provider.calls)
}

func TestStreamServiceUnknownModelFallsBack(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"ok"}}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{
		Messages:      []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "hi"}},
		SelectedModel: "gpt-99-ultra",
	}, collectEvents(&events))
	require.NoError(t, err)

	done := events[len(events)-1]
	assert.Equal(t, "done", done.Type)
	assert.Equal(t, registry.DefaultModel, done.Model)
}

func TestStreamServiceProviderFailureBecomesErrorEvent(t *testing.T) {
	provider := &fakeProvider{streamErr: errors.New("upstream 500")}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "hi"}},
	}, collectEvents(&events))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Type)
	assert.Equal(t, "model stream failed", events[0].Error)
}

func TestStreamServicePersistsTrailingUserTurn(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"ok"}}
	factory, activity, svc := newStreamHarness(provider)
	userId := uuid.New()
	chat := seedChat(factory, &userId)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), &userId, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "persist me"}},
		ChatId:   &chat.Id,
	}, collectEvents(&events))
	require.NoError(t, err)

	var persisted int
	for _, m := range factory.store.messages {
		if m.ChatId == chat.Id && m.Content == "persist me" {
			persisted++
		}
	}
	assert.Equal(t, 1, persisted)
	assert.GreaterOrEqual(t, activity.count(), 1)
}

func TestStreamServiceSkipsPersistForAssistantTail(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"ok"}}
	factory, _, svc := newStreamHarness(provider)
	userId := uuid.New()
	chat := seedChat(factory, &userId)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), &userId, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{
			{Role: constant.ChatMessageRoleUser, Content: "hi"},
			{Role: constant.ChatMessageRoleAssistant, Content: "partial answer"},
		},
		ChatId: &chat.Id,
	}, collectEvents(&events))
	require.NoError(t, err)
	assert.Empty(t, factory.store.messages)
}

func TestStreamServiceOwnershipCheckedBeforeStreaming(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"never"}}
	factory, _, svc := newStreamHarness(provider)
	owner := uuid.New()
	stranger := uuid.New()
	chat := seedChat(factory, &owner)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), &stranger, &dto.StreamChatRequest{
		Messages: []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "hi"}},
		ChatId:   &chat.Id,
	}, collectEvents(&events))

	var httpErr *serverutils.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 403, httpErr.Status)
	assert.Empty(t, events)
	assert.Zero(t, provider.calls)
}

func TestStreamServiceSearchGroundingOption(t *testing.T) {
	provider := &fakeProvider{deltas: []string{"ok"}}
	_, _, svc := newStreamHarness(provider)

	var events []dto.StreamEvent
	err := svc.Stream(context.Background(), nil, &dto.StreamChatRequest{
		Messages:           []dto.StreamMessage{{Role: constant.ChatMessageRoleUser, Content: "hi"}},
		UseSearchGrounding: true,
	}, collectEvents(&events))
	require.NoError(t, err)
	assert.True(t, provider.opts.SearchGrounding)
	assert.Equal(t, registry.DefaultModel, provider.opts.Model)
}
