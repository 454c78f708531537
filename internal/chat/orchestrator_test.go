package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/passtalk/passtalk/internal/ai"
	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/pkg/logger"
)

// scriptedParser returns its queued results in order. A queued error entry
// fails that turn.
type scriptedParser struct {
	script []scriptedTurn
	calls  int
}

type scriptedTurn struct {
	result model.ParseResult
	err    error
}

func (p *scriptedParser) Parse(_ context.Context, _ string, _ []model.ChatMessage) (model.ParseResult, error) {
	if p.calls >= len(p.script) {
		return model.UnknownParseResult(), nil
	}
	turn := p.script[p.calls]
	p.calls++
	return turn.result, turn.err
}

type memoryEntryStore struct {
	created   []model.EntryPatch
	found     []model.Entry
	createErr error
	searchErr error
}

func (s *memoryEntryStore) Create(patch model.EntryPatch) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, patch)
	return "uuid-1", nil
}

func (s *memoryEntryStore) Search(keyword string, tag *model.PresetTag) ([]model.Entry, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.found, nil
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newTestOrchestrator(t *testing.T, parser Parser, store EntryStore) *Orchestrator {
	t.Helper()
	return NewOrchestrator(parser, store, nopLogger())
}

func lastContent(msgs []model.ChatMessage) string {
	return msgs[len(msgs)-1].Content
}

func TestNewSessionOpensWithGreeting(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedParser{}, &memoryEntryStore{})

	msgs := o.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, Greeting, msgs[0].Content)
}

func TestRestoredHistorySkipsGreeting(t *testing.T) {
	prior := []model.ChatMessage{
		model.NewChatMessage(model.RoleAssistant, Greeting, model.PayloadText),
		model.NewChatMessage(model.RoleUser, "hi", model.PayloadText),
	}
	o := NewOrchestrator(&scriptedParser{}, &memoryEntryStore{}, nopLogger(), WithHistory(prior))
	assert.Len(t, o.Messages(), 2)
}

func TestSendEmptyTextIsNoop(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedParser{}, &memoryEntryStore{})

	appended, err := o.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, appended)
	assert.Len(t, o.Messages(), 1)
}

// One utterance carrying all three fields saves in a single turn.
func TestSendCompleteSave(t *testing.T) {
	store := &memoryEntryStore{}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{
			Intent:   model.IntentSave,
			Platform: "GitHub",
			Account:  "alex@example.com",
			Password: "Gh!2024",
		}},
	}}
	o := newTestOrchestrator(t, parser, store)

	appended, err := o.Send(context.Background(), "帮我记一下 GitHub 账号 alex@example.com 密码 Gh!2024")
	require.NoError(t, err)
	require.Len(t, appended, 2)

	reply := appended[1]
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, model.PayloadCard, reply.PayloadType)
	assert.Equal(t, "已记好。GitHub / alex@example.com", reply.Content)

	require.Len(t, store.created, 1)
	assert.Equal(t, "GitHub", store.created[0].Platform)
	assert.False(t, o.HasPendingDraft())
}

// A save missing the password asks for it, then completes when the follow-up
// turn supplies it.
func TestSendTwoTurnSave(t *testing.T) {
	store := &memoryEntryStore{}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{
			Intent:           model.IntentSave,
			Platform:         "GitHub",
			Account:          "alex@example.com",
			MissingFields:    []string{"password"},
			FollowUpQuestion: "密码是什么？",
		}},
		{result: model.ParseResult{
			Intent:   model.IntentSave,
			Password: "Gh!2024",
		}},
	}}
	o := newTestOrchestrator(t, parser, store)

	appended, err := o.Send(context.Background(), "帮我记一下 GitHub 账号 alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.PayloadFollowUp, appended[1].PayloadType)
	assert.Equal(t, "密码是什么？", appended[1].Content)
	assert.True(t, o.HasPendingDraft())
	assert.Empty(t, store.created)

	appended, err = o.Send(context.Background(), "密码是 Gh!2024")
	require.NoError(t, err)
	assert.Equal(t, "已记好。GitHub / alex@example.com", lastContent(appended))
	assert.False(t, o.HasPendingDraft())
	require.Len(t, store.created, 1)
	assert.Equal(t, "Gh!2024", store.created[0].Password)
}

// When the provider supplies no question the deterministic one is used.
func TestSendIncompleteSaveDefaultQuestion(t *testing.T) {
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentSave, Platform: "GitHub"}},
	}}
	o := newTestOrchestrator(t, parser, &memoryEntryStore{})

	appended, err := o.Send(context.Background(), "记一下 GitHub")
	require.NoError(t, err)
	assert.Equal(t, "我还需要这些信息：账号、密码。可以补充一下吗？", lastContent(appended))
}

// An unknown intent while a draft is pending is treated as a continuation.
func TestSendUnknownContinuesDraft(t *testing.T) {
	store := &memoryEntryStore{}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentSave, Platform: "GitHub", Account: "a"}},
		{result: model.ParseResult{Intent: model.IntentUnknown, Password: "Gh!2024"}},
	}}
	o := newTestOrchestrator(t, parser, store)

	_, err := o.Send(context.Background(), "记一下 GitHub 账号 a")
	require.NoError(t, err)

	appended, err := o.Send(context.Background(), "Gh!2024")
	require.NoError(t, err)
	assert.Equal(t, "已记好。GitHub / a", lastContent(appended))
	require.Len(t, store.created, 1)
}

func TestSendUnknownWithoutDraft(t *testing.T) {
	t.Run("model question is surfaced", func(t *testing.T) {
		parser := &scriptedParser{script: []scriptedTurn{
			{result: model.ParseResult{Intent: model.IntentUnknown, FollowUpQuestion: "你想保存还是查询？"}},
		}}
		o := newTestOrchestrator(t, parser, &memoryEntryStore{})
		appended, err := o.Send(context.Background(), "呃")
		require.NoError(t, err)
		assert.Equal(t, "你想保存还是查询？", lastContent(appended))
	})

	t.Run("fallback copy otherwise", func(t *testing.T) {
		parser := &scriptedParser{script: []scriptedTurn{
			{result: model.ParseResult{Intent: model.IntentUnknown}},
		}}
		o := newTestOrchestrator(t, parser, &memoryEntryStore{})
		appended, err := o.Send(context.Background(), "呃")
		require.NoError(t, err)
		assert.Equal(t, "我没完全理解，你可以直接说：平台 + 账号 + 密码。", lastContent(appended))
	})
}

func TestSendQueryHit(t *testing.T) {
	store := &memoryEntryStore{found: []model.Entry{
		{Platform: "Spotify", Account: "alex@example.com", Password: "Sp!2024"},
		{Platform: "Spotify Family", Account: "other", Password: "x"},
	}}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentQuery, QueryKeyword: "Spotify"}},
	}}
	o := newTestOrchestrator(t, parser, store)

	appended, err := o.Send(context.Background(), "我的 Spotify 密码是什么")
	require.NoError(t, err)
	reply := appended[1]
	assert.Equal(t, model.PayloadCard, reply.PayloadType)
	assert.Equal(t, "Spotify\n账号: alex@example.com\n密码: Sp!2024", reply.Content)
}

func TestSendQueryMiss(t *testing.T) {
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentQuery, QueryKeyword: "Netflix"}},
	}}
	o := newTestOrchestrator(t, parser, &memoryEntryStore{})

	appended, err := o.Send(context.Background(), "Netflix 的密码")
	require.NoError(t, err)
	assert.Equal(t, "没有找到相关条目。", lastContent(appended))
}

// A query abandons the in-flight draft.
func TestSendQueryClearsDraft(t *testing.T) {
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentSave, Platform: "GitHub"}},
		{result: model.ParseResult{Intent: model.IntentQuery, QueryKeyword: "Spotify"}},
	}}
	o := newTestOrchestrator(t, parser, &memoryEntryStore{})

	_, err := o.Send(context.Background(), "记一下 GitHub")
	require.NoError(t, err)
	assert.True(t, o.HasPendingDraft())

	_, err = o.Send(context.Background(), "我的 Spotify 密码是什么")
	require.NoError(t, err)
	assert.False(t, o.HasPendingDraft())
}

// Provider failures become assistant messages and the pending draft survives.
func TestSendProviderErrorPreservesDraft(t *testing.T) {
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentSave, Platform: "GitHub"}},
		{err: &ai.HTTPError{Status: 401, Detail: "invalid key"}},
	}}
	o := newTestOrchestrator(t, parser, &memoryEntryStore{})

	_, err := o.Send(context.Background(), "记一下 GitHub")
	require.NoError(t, err)
	require.True(t, o.HasPendingDraft())

	appended, err := o.Send(context.Background(), "账号 a 密码 p")
	require.NoError(t, err)
	reply := lastContent(appended)
	assert.Contains(t, reply, "401")
	assert.Contains(t, reply, "invalid key")
	assert.True(t, o.HasPendingDraft())
}

func TestSendErrorReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing api key", ai.ErrMissingAPIKey, "请先在设置中填写并保存 API Key。"},
		{"network", &ai.NetworkError{Err: errors.New("dial tcp: refused")}, "网络请求失败，请稍后重试。"},
		{"other", errors.New("boom"), "网络请求失败，请稍后重试。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &scriptedParser{script: []scriptedTurn{{err: tt.err}}}
			o := newTestOrchestrator(t, parser, &memoryEntryStore{})
			appended, err := o.Send(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, tt.want, lastContent(appended))
		})
	}
}

// A failed create keeps the completed draft so the user can retry.
func TestSendCreateFailureKeepsDraft(t *testing.T) {
	store := &memoryEntryStore{createErr: errors.New("disk full")}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentSave, Platform: "GitHub", Account: "a", Password: "p"}},
	}}
	o := newTestOrchestrator(t, parser, store)

	appended, err := o.Send(context.Background(), "记一下 GitHub a p")
	require.NoError(t, err)
	assert.Equal(t, "保存失败，请稍后重试。", lastContent(appended))
	assert.True(t, o.HasPendingDraft())
}

func TestSendSearchFailure(t *testing.T) {
	store := &memoryEntryStore{searchErr: errors.New("db locked")}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentQuery, QueryKeyword: "GitHub"}},
	}}
	o := newTestOrchestrator(t, parser, store)

	appended, err := o.Send(context.Background(), "GitHub 密码")
	require.NoError(t, err)
	assert.Equal(t, "查询失败，请稍后重试。", lastContent(appended))
}

// blockingParser lets the test hold a send in flight.
type blockingParser struct {
	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func (p *blockingParser) Parse(_ context.Context, _ string, _ []model.ChatMessage) (model.ParseResult, error) {
	p.startOnce.Do(func() { close(p.started) })
	<-p.release
	return model.UnknownParseResult(), nil
}

func TestSendRejectsOverlappingSends(t *testing.T) {
	parser := &blockingParser{started: make(chan struct{}), release: make(chan struct{})}
	o := newTestOrchestrator(t, parser, &memoryEntryStore{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := o.Send(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-parser.started
	_, err := o.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(parser.release)
	<-done

	_, err = o.Send(context.Background(), "third")
	assert.NoError(t, err)
}

// recorder failures are swallowed, never surfaced.
type failingRecorder struct{ appended int }

func (r *failingRecorder) Append(model.ChatMessage) error {
	r.appended++
	return errors.New("disk full")
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	rec := &failingRecorder{}
	parser := &scriptedParser{script: []scriptedTurn{
		{result: model.ParseResult{Intent: model.IntentUnknown}},
	}}
	o := NewOrchestrator(parser, &memoryEntryStore{}, nopLogger(), WithRecorder(rec))

	_, err := o.Send(context.Background(), "hi")
	require.NoError(t, err)
	// Greeting, user turn and assistant reply all hit the recorder.
	assert.Equal(t, 3, rec.appended)
}
