// Package chat drives one generation exchange: persist the user message,
// seed the backend with the merged prior transcript, fan tokens out while
// they arrive, and persist the final assistant message when the stream ends.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"loomchat/internal/inference"
	"loomchat/internal/metrics"
	"loomchat/internal/models"
	"loomchat/internal/store"
	"loomchat/internal/transcript"
)

// ErrStreamActive wraps ErrConflict: at most one generation stream may be
// live per thread, enforced here rather than by the UI, so concurrent tabs
// cannot race the same thread.
var ErrStreamActive = fmt.Errorf("a generation stream is already active for this thread: %w", store.ErrConflict)

const credentialKeyOpenAI = "OPENAI_API_KEY"

type Engine struct {
	threads   *store.ThreadStore
	sources   *store.SourceStore
	providers *store.ProviderStore
	messages  *store.MessageStore
	llm       *inference.Client

	mu     sync.Mutex
	active map[uint]*streamHandle // keyed by thread id
}

// streamHandle tracks one live stream: its cancel hook and the
// monotonically growing partial content.
type streamHandle struct {
	cancel    context.CancelFunc
	cancelled bool
	sourceID  uint
	startedAt time.Time

	mu  sync.Mutex
	buf strings.Builder
}

func (h *streamHandle) append(token string) {
	h.mu.Lock()
	h.buf.WriteString(token)
	h.mu.Unlock()
}

func (h *streamHandle) snapshot() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.String()
}

func New(threads *store.ThreadStore, sources *store.SourceStore, providers *store.ProviderStore, messages *store.MessageStore, llm *inference.Client) *Engine {
	return &Engine{
		threads:   threads,
		sources:   sources,
		providers: providers,
		messages:  messages,
		llm:       llm,
		active:    make(map[uint]*streamHandle),
	}
}

type StreamRequest struct {
	UserID   string
	ThreadID uint
	Message  string
	SourceID uint // 0 = resolve from the selected provider's sources
}

type StreamResult struct {
	UserMessage *models.UserMessage
	Assistant   *models.InferenceMessage // nil when the final persist did not happen
	Content     string                   // accumulated text, preserved even on failure
	Cancelled   bool
}

// Stream runs one full exchange. onToken is invoked for every token in
// arrival order; it must not block for long. On transport failure the
// accumulated content is returned in the result alongside the error so the
// caller can surface or retry it.
func (e *Engine) Stream(ctx context.Context, req StreamRequest, onToken func(token string)) (*StreamResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", store.ErrValidation)
	}
	if _, err := e.threads.Get(ctx, req.UserID, req.ThreadID); err != nil {
		return nil, err
	}

	source, err := e.resolveSource(ctx, req.UserID, req.SourceID)
	if err != nil {
		return nil, err
	}
	provider, err := e.providers.Get(ctx, req.UserID, source.ProviderID)
	if err != nil {
		return nil, err
	}
	apiKey, err := e.providers.CredentialValue(ctx, req.UserID, provider.ID, credentialKeyOpenAI)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	handle, err := e.acquire(req.ThreadID, source.ID, cancel)
	if err != nil {
		cancel()
		return nil, err
	}
	defer e.release(req.ThreadID)
	defer cancel()

	userMsg, err := e.messages.AppendUserMessage(ctx, req.UserID, req.ThreadID, "text", models.UserMessageContent{Message: req.Message})
	if err != nil {
		return nil, err
	}

	seed, err := e.seedTranscript(ctx, req.UserID, req.ThreadID)
	if err != nil {
		return nil, err
	}

	m := metrics.Global()
	m.StreamsStarted.Inc()

	result := &StreamResult{UserMessage: userMsg}
	content, streamErr := e.llm.Stream(streamCtx, inference.ModelConfig{
		Provider: provider.ProviderName,
		Model:    source.Name,
		APIKey:   apiKey,
	}, seed, func(token string) {
		handle.append(token)
		m.TokensStreamed.Inc()
		if onToken != nil {
			onToken(token)
		}
	})
	result.Content = content

	if streamErr != nil {
		if e.wasCancelled(req.ThreadID) {
			m.StreamsCancelled.Inc()
			result.Cancelled = true
			if content == "" {
				return result, nil
			}
			// Preserve what the model already said.
			assistant, persistErr := e.messages.AppendInferenceMessage(ctx, req.UserID, req.ThreadID, source.ID,
				"cancelled", models.InferenceMessageContent{Message: content}, time.Now())
			if persistErr != nil {
				return result, fmt.Errorf("persist cancelled message: %w", persistErr)
			}
			result.Assistant = assistant
			return result, nil
		}
		m.StreamsFailed.Inc()
		return result, streamErr
	}

	assistant, persistErr := e.messages.AppendInferenceMessage(ctx, req.UserID, req.ThreadID, source.ID,
		"text", models.InferenceMessageContent{Message: content}, time.Now())
	if persistErr != nil {
		// The accumulated content stays in the result for the caller to
		// surface or retry; nothing is rolled back.
		return result, fmt.Errorf("persist final message: %w", persistErr)
	}
	m.StreamsFinished.Inc()
	result.Assistant = assistant
	return result, nil
}

// Cancel aborts the live stream of a thread, if any. Partial content is
// preserved by the streaming goroutine.
func (e *Engine) Cancel(threadID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	handle, ok := e.active[threadID]
	if !ok {
		return false
	}
	handle.cancelled = true
	handle.cancel()
	return true
}

// Partial returns a snapshot of the in-flight assistant message for a
// thread, or nil when the thread is idle. Transcript reads merge this in.
func (e *Engine) Partial(threadID uint) *transcript.Partial {
	e.mu.Lock()
	handle, ok := e.active[threadID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	return &transcript.Partial{
		Content:   handle.snapshot(),
		SourceID:  handle.sourceID,
		StartedAt: handle.startedAt,
	}
}

// Streaming reports whether a thread has a live generation stream.
func (e *Engine) Streaming(threadID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[threadID]
	return ok
}

func (e *Engine) acquire(threadID, sourceID uint, cancel context.CancelFunc) (*streamHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.active[threadID]; ok {
		return nil, ErrStreamActive
	}
	handle := &streamHandle{
		cancel:    cancel,
		sourceID:  sourceID,
		startedAt: time.Now(),
	}
	e.active[threadID] = handle
	return handle, nil
}

func (e *Engine) release(threadID uint) {
	e.mu.Lock()
	delete(e.active, threadID)
	e.mu.Unlock()
}

func (e *Engine) wasCancelled(threadID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	handle, ok := e.active[threadID]
	return ok && handle.cancelled
}

// resolveSource picks the source that authors the reply: an explicit id is
// validated against the caller; otherwise the first source bound to the
// selected provider wins, falling back to the caller's first source.
func (e *Engine) resolveSource(ctx context.Context, userID string, sourceID uint) (*models.InferenceSource, error) {
	if sourceID != 0 {
		return e.sources.Get(ctx, userID, sourceID)
	}

	sources, err := e.sources.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no inference source configured: %w", store.ErrValidation)
	}

	if selected, err := e.providers.Selected(ctx, userID); err == nil && selected != nil {
		for i := range sources {
			if sources[i].ProviderID == selected.ID {
				return &sources[i], nil
			}
		}
	}
	return &sources[0], nil
}

func (e *Engine) seedTranscript(ctx context.Context, userID string, threadID uint) ([]inference.Message, error) {
	userMsgs, err := e.messages.UserMessages(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	infMsgs, err := e.messages.InferenceMessages(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	entries := transcript.Merge(userMsgs, infMsgs, nil)
	seed := make([]inference.Message, 0, len(entries))
	for _, entry := range entries {
		seed = append(seed, inference.Message{Role: string(entry.Role), Content: entry.Content})
	}
	return seed, nil
}
