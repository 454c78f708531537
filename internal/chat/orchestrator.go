package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/passtalk/passtalk/internal/ai"
	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/pkg/logger"
	"github.com/passtalk/passtalk/pkg/metrics"
)

// Greeting seeds a new conversation.
const Greeting = "嗨，我是 PassTalk。把账号密码告诉我，我帮你记住。"

// Conversational copy. Several strings are matched by clients, keep them
// stable.
const (
	msgSaved          = "已记好。%s / %s"
	msgNotFound       = "没有找到相关条目。"
	msgSaveFailed     = "保存失败，请稍后重试。"
	msgSearchFailed   = "查询失败，请稍后重试。"
	msgGenericUnknown = "我没完全理解，你可以直接说：平台 + 账号 + 密码。"
	msgGenericFailure = "网络请求失败，请稍后重试。"
)

// ErrBusy is returned when a send arrives while another is still in flight.
// Overlapping sends would race on the draft and message history.
var ErrBusy = errors.New("a message is already being processed")

// Parser classifies a user utterance against the visible history.
type Parser interface {
	Parse(ctx context.Context, text string, history []model.ChatMessage) (model.ParseResult, error)
}

// EntryStore is the slice of the credential store the orchestrator uses.
type EntryStore interface {
	Create(patch model.EntryPatch) (string, error)
	Search(keyword string, tag *model.PresetTag) ([]model.Entry, error)
}

// Recorder persists chat messages so a transcript survives restarts.
// Persistence is best-effort; failures are logged, never surfaced.
type Recorder interface {
	Append(msg model.ChatMessage) error
}

// Orchestrator drives one conversation session. It holds the append-only
// message history and at most one pending entry draft.
type Orchestrator struct {
	parser   Parser
	entries  EntryStore
	recorder Recorder
	logger   *logger.Logger

	mu       sync.Mutex
	inFlight bool
	messages []model.ChatMessage
	draft    *Draft
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches a message persistence hook.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithHistory restores a previously persisted transcript. When the restored
// history is empty the greeting is still seeded.
func WithHistory(msgs []model.ChatMessage) Option {
	return func(o *Orchestrator) { o.messages = msgs }
}

// NewOrchestrator creates a session. A fresh session opens with the
// assistant greeting.
func NewOrchestrator(parser Parser, entries EntryStore, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		parser:  parser,
		entries: entries,
		logger:  log,
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.messages) == 0 {
		greeting := model.NewChatMessage(model.RoleAssistant, Greeting, model.PayloadText)
		o.messages = append(o.messages, greeting)
		o.record(greeting)
	}
	return o
}

// Messages returns a copy of the transcript.
func (o *Orchestrator) Messages() []model.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.ChatMessage, len(o.messages))
	copy(out, o.messages)
	return out
}

// HasPendingDraft reports whether a save is awaiting completion.
func (o *Orchestrator) HasPendingDraft() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft != nil
}

// Send processes one user turn and returns the messages it appended. At most
// one send may be in flight; concurrent sends get ErrBusy. AI and storage
// failures become assistant messages, not errors.
func (o *Orchestrator) Send(ctx context.Context, rawText string) ([]model.ChatMessage, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, nil
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.inFlight = true

	userMsg := model.NewChatMessage(model.RoleUser, text, model.PayloadText)
	o.messages = append(o.messages, userMsg)
	o.record(userMsg)
	history := make([]model.ChatMessage, len(o.messages))
	copy(history, o.messages)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	parse, err := o.parser.Parse(ctx, text, history)
	if err != nil {
		reply := o.append(model.RoleAssistant, errorReply(err), model.PayloadText)
		return []model.ChatMessage{userMsg, reply}, nil
	}

	metrics.RecordIntent(string(parse.Intent))

	reply := o.dispatch(parse)
	return []model.ChatMessage{userMsg, reply}, nil
}

func (o *Orchestrator) dispatch(parse model.ParseResult) model.ChatMessage {
	o.mu.Lock()
	pending := o.draft
	o.mu.Unlock()

	switch parse.Intent {
	case model.IntentSave, model.IntentUpdate:
		return o.continueDraft(parse, pending)

	case model.IntentQuery:
		// A query abandons an in-flight save.
		o.setDraft(nil)
		return o.answerQuery(parse)

	default:
		if pending != nil {
			// An unknown intent mid-draft is treated as a continuation:
			// the model was asked for the missing fields and the user is
			// probably supplying them.
			return o.continueDraft(parse, pending)
		}
		question := parse.FollowUpQuestion
		if question == "" {
			question = msgGenericUnknown
		}
		return o.append(model.RoleAssistant, question, model.PayloadText)
	}
}

// continueDraft merges parsed fields into the pending draft (or a fresh one)
// and either persists the completed entry or asks for what is still missing.
func (o *Orchestrator) continueDraft(parse model.ParseResult, pending *Draft) model.ChatMessage {
	draft := MergeDraft(parse, pending)

	patch, ok := draft.Patch()
	if !ok {
		o.setDraft(draft)
		question := parse.FollowUpQuestion
		if question == "" {
			question = draft.FollowUpQuestion()
		}
		return o.append(model.RoleAssistant, question, model.PayloadFollowUp)
	}

	recordUUID, err := o.entries.Create(patch)
	if err != nil {
		// The draft survives a failed write so the user can retry.
		o.setDraft(draft)
		o.logger.Error("entry create failed", zap.Error(err))
		return o.append(model.RoleAssistant, msgSaveFailed, model.PayloadText)
	}

	o.setDraft(nil)
	metrics.RecordEntryCreated()
	o.logger.Info("entry saved from conversation",
		zap.String("record_uuid", recordUUID),
		zap.String("platform", patch.Platform))
	return o.append(model.RoleAssistant, fmt.Sprintf(msgSaved, patch.Platform, patch.Account), model.PayloadCard)
}

func (o *Orchestrator) answerQuery(parse model.ParseResult) model.ChatMessage {
	keyword := parse.QueryKeyword
	if keyword == "" {
		keyword = parse.Platform
	}

	rows, err := o.entries.Search(keyword, nil)
	if err != nil {
		o.logger.Error("entry search failed", zap.Error(err))
		return o.append(model.RoleAssistant, msgSearchFailed, model.PayloadText)
	}

	if len(rows) == 0 {
		return o.append(model.RoleAssistant, msgNotFound, model.PayloadText)
	}

	first := rows[0]
	card := fmt.Sprintf("%s\n账号: %s\n密码: %s", first.Platform, first.Account, first.Password)
	return o.append(model.RoleAssistant, card, model.PayloadCard)
}

func (o *Orchestrator) append(role model.Role, content string, payload model.PayloadType) model.ChatMessage {
	msg := model.NewChatMessage(role, content, payload)
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
	o.record(msg)
	return msg
}

func (o *Orchestrator) setDraft(d *Draft) {
	o.mu.Lock()
	o.draft = d
	o.mu.Unlock()
}

func (o *Orchestrator) record(msg model.ChatMessage) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Append(msg); err != nil {
		o.logger.Warn("failed to persist chat message", zap.Error(err))
	}
}

// errorReply maps an AI-layer error to its user-facing text. Nothing here is
// fatal to the session.
func errorReply(err error) string {
	var httpErr *ai.HTTPError
	var netErr *ai.NetworkError
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return ai.ErrMissingAPIKey.Error()
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &netErr):
		return netErr.Error()
	default:
		return msgGenericFailure
	}
}
