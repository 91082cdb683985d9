package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skritek/switchboard/agent"
	"github.com/skritek/switchboard/core"
	"github.com/skritek/switchboard/logging"
	"github.com/skritek/switchboard/model"
)

// VoiceMarker is the legacy in-band separator splitting a reply into a
// primary text and a shorter voice variant. Responses carry the two parts as
// explicit fields; the marker is still parsed for compatibility with prompts
// that instruct the model to emit it.
const VoiceMarker = "|||VOICE|||"

const (
	// maxTranscriptTurns caps the persisted session transcript.
	maxTranscriptTurns = 20
	// maxHistoryTurns bounds the caller-supplied history included in the prompt.
	maxHistoryTurns = 10
	// memoryWindow bounds how much long-term user memory reaches the model.
	memoryWindow = 2000
	// maxLoggedResult bounds agent results recorded in diagnostic logs.
	maxLoggedResult = 200
)

// Options configures a Dispatcher instance.
type Options struct {
	// Gateway is the completion service. Nil enables degraded mode, where
	// requests are answered by direct keyword routing only.
	Gateway model.Gateway

	// GatewayTimeout bounds each completion call. Zero means no bound
	// beyond the caller's context.
	GatewayTimeout time.Duration

	// Logger receives orchestration diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher composes the registry, context store, memory store and model
// gateway to answer one request per Process call. It is safe for concurrent
// use; session transcript writes are serialized per session key.
type Dispatcher struct {
	registry *agent.Registry
	contexts core.ContextStore
	memory   core.MemoryStore
	gateway  model.Gateway
	timeout  time.Duration
	logger   logging.Logger

	sessionMu    sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New constructs a Dispatcher over the given collaborators.
func New(registry *agent.Registry, contexts core.ContextStore, memory core.MemoryStore, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		registry:     registry,
		contexts:     contexts,
		memory:       memory,
		gateway:      opts.Gateway,
		timeout:      opts.GatewayTimeout,
		logger:       opts.Logger,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// Process answers one request. It returns an error only when UserInput is
// missing; every other failure mode is converted into response content plus
// diagnostic log entries.
func (d *Dispatcher) Process(ctx context.Context, req core.Request) (*core.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Normalize()
	if req.SessionGUID == "" {
		req.SessionGUID = uuid.NewString()
	}

	rctx := d.contexts.Get(req.ContextGUID)
	eligible := d.eligibleAgents(rctx)

	userMemory, err := d.memory.UserMemory(req.UserGUID)
	if err != nil {
		// Missing memory degrades the prompt, not the request.
		d.logger.Warn("user memory read failed", "user", req.UserGUID, "error", err.Error())
		userMemory = ""
	}

	messages := buildMessages(req, rctx, userMemory, eligibleIDs(eligible))
	tools := buildTools(eligible)

	responseText := ""
	agentsUsed := []string{}
	agentLogs := []string{}

	if d.gateway != nil && len(tools) > 0 {
		responseText, agentsUsed, agentLogs = d.runProtocol(ctx, messages, tools, eligible)
	} else {
		responseText, agentsUsed, agentLogs = d.directRoute(req.UserInput, eligible)
	}

	responseText, voiceResponse := SplitVoice(responseText)

	transcript := make([]core.Turn, 0, len(req.ConversationHistory)+2)
	transcript = append(transcript, req.ConversationHistory...)
	transcript = append(transcript,
		core.Turn{Role: core.RoleUser, Content: req.UserInput},
		core.Turn{Role: core.RoleAssistant, Content: responseText},
	)
	if len(transcript) > maxTranscriptTurns {
		transcript = transcript[len(transcript)-maxTranscriptTurns:]
	}
	d.saveSession(req.SessionGUID, transcript)

	return &core.Response{
		Response:      responseText,
		VoiceResponse: voiceResponse,
		AgentLogs:     agentLogs,
		AgentsUsed:    agentsUsed,
		SessionGUID:   req.SessionGUID,
		ContextGUID:   rctx.GUID,
	}, nil
}

// eligibleAgents computes the agent set scoped by the context: the full
// registry snapshot under the wildcard, otherwise the allow-list intersected
// with the registry.
func (d *Dispatcher) eligibleAgents(rctx *core.Context) map[string]agent.Agent {
	snapshot := d.registry.Snapshot()
	if rctx.AllowsAllAgents() {
		return snapshot
	}
	eligible := make(map[string]agent.Agent)
	for _, id := range rctx.Agents {
		if a, ok := snapshot[id]; ok {
			eligible[id] = a
		}
	}
	return eligible
}

// eligibleIDs returns agent ids in lexicographic order. Deterministic
// ordering keeps prompt assembly and keyword routing reproducible.
func eligibleIDs(eligible map[string]agent.Agent) []string {
	ids := make([]string, 0, len(eligible))
	for id := range eligible {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// buildMessages assembles the model prompt: a system message carrying the
// context prompt, a bounded recency window of user memory and the eligible
// agent listing, followed by the most recent caller-supplied history turns
// and the current user input.
func buildMessages(req core.Request, rctx *core.Context, userMemory string, ids []string) []model.Message {
	system := rctx.SystemPrompt
	if system == "" {
		system = "You are a helpful AI assistant."
	}
	if userMemory != "" {
		if len(userMemory) > memoryWindow {
			userMemory = userMemory[len(userMemory)-memoryWindow:]
		}
		system += "\n\nUser Memory:\n" + userMemory
	}
	if len(ids) > 0 {
		system += "\n\nAvailable agents: " + strings.Join(ids, ", ")
	}

	messages := []model.Message{{Role: core.RoleSystem, Content: system}}

	history := req.ConversationHistory
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		role := turn.Role
		if role == "" {
			role = core.RoleUser
		}
		messages = append(messages, model.Message{Role: role, Content: turn.Content})
	}

	messages = append(messages, model.Message{Role: core.RoleUser, Content: req.UserInput})
	return messages
}

// buildTools produces one tool descriptor per eligible agent, in id order.
func buildTools(eligible map[string]agent.Agent) []model.ToolDefinition {
	tools := make([]model.ToolDefinition, 0, len(eligible))
	for _, id := range eligibleIDs(eligible) {
		desc := eligible[id].Descriptor()
		tools = append(tools, model.ToolDefinition{
			Name:        desc.ID,
			Description: desc.Description,
			Parameters:  desc.Parameters,
		})
	}
	return tools
}

// runProtocol executes the bounded two-round tool-calling protocol: one
// completion with tools, at most one agent invocation, and one follow-up
// completion without tools to phrase the final reply. Failed completions
// terminate the round; there is no retry within one Process call.
func (d *Dispatcher) runProtocol(
	ctx context.Context,
	messages []model.Message,
	tools []model.ToolDefinition,
	eligible map[string]agent.Agent,
) (string, []string, []string) {
	agentsUsed := []string{}
	agentLogs := []string{}

	first, err := d.complete(ctx, model.Request{Messages: messages, Tools: tools})
	if err != nil {
		d.logger.Error("completion call failed", "error", err.Error())
		return fmt.Sprintf("AI error: %v", err), agentsUsed, agentLogs
	}

	tc := first.ToolCall
	if tc == nil {
		return first.Text, agentsUsed, agentLogs
	}

	a, ok := eligible[tc.Name]
	if !ok {
		// The model asked for a tool outside the eligible set; ignore the
		// request and use whatever text it produced.
		d.logger.Warn("model requested ineligible tool", "tool", tc.Name)
		return first.Text, agentsUsed, agentLogs
	}

	args, err := tc.Args()
	if err != nil {
		agentLogs = append(agentLogs, fmt.Sprintf("%s error: %v", tc.Name, err))
		return fmt.Sprintf("Agent error: %v", err), agentsUsed, agentLogs
	}

	result, err := a.Invoke(args)
	if err != nil {
		agentLogs = append(agentLogs, fmt.Sprintf("%s error: %v", tc.Name, err))
		return fmt.Sprintf("Agent error: %v", err), agentsUsed, agentLogs
	}

	agentLogs = append(agentLogs, fmt.Sprintf("%s: %s...", tc.Name, truncate(result, maxLoggedResult)))
	agentsUsed = append(agentsUsed, tc.Name)

	followup := make([]model.Message, 0, len(messages)+2)
	followup = append(followup, messages...)
	followup = append(followup,
		model.Message{Role: core.RoleAssistant, ToolCall: tc},
		model.Message{Role: core.RoleTool, Content: result, ToolCallID: tc.ID},
	)

	second, err := d.complete(ctx, model.Request{Messages: followup})
	if err != nil {
		d.logger.Error("follow-up completion failed", "error", err.Error())
		return fmt.Sprintf("AI error: %v", err), agentsUsed, agentLogs
	}
	return second.Text, agentsUsed, agentLogs
}

// complete bounds one gateway call with the configured timeout.
func (d *Dispatcher) complete(ctx context.Context, req model.Request) (*model.Completion, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.gateway.Complete(ctx, req)
}

// directRoute answers without a gateway: the first eligible agent (in
// lexicographic id order) whose id appears case-insensitively in the user
// input is invoked with a generic help request, best-effort. When nothing
// matches, the reply lists the eligible agent ids.
func (d *Dispatcher) directRoute(userInput string, eligible map[string]agent.Agent) (string, []string, []string) {
	agentsUsed := []string{}
	agentLogs := []string{}
	inputLower := strings.ToLower(userInput)

	ids := eligibleIDs(eligible)
	for _, id := range ids {
		if !strings.Contains(inputLower, strings.ToLower(id)) {
			continue
		}
		result, err := eligible[id].Invoke(map[string]any{
			"action":  "help",
			"request": userInput,
		})
		if err != nil {
			d.logger.Warn("direct route invocation failed", "agent", id, "error", err.Error())
			continue
		}
		agentLogs = append(agentLogs, fmt.Sprintf("%s: %s...", id, truncate(result, maxLoggedResult)))
		agentsUsed = append(agentsUsed, id)
		return result, agentsUsed, agentLogs
	}

	return "Available agents: " + strings.Join(ids, ", "), agentsUsed, agentLogs
}

// SplitVoice splits a reply on the first occurrence of VoiceMarker into the
// trimmed primary text and the trimmed voice variant. Without the marker the
// voice variant is empty.
func SplitVoice(text string) (string, string) {
	before, after, found := strings.Cut(text, VoiceMarker)
	if !found {
		return text, ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// saveSession persists the transcript, serializing writes per session key so
// two concurrent requests for the same session cannot interleave a
// read-modify-write. A save failure is logged, not surfaced; the response is
// already composed.
func (d *Dispatcher) saveSession(sessionGUID string, transcript []core.Turn) {
	lock := d.sessionLock(sessionGUID)
	lock.Lock()
	defer lock.Unlock()

	if err := d.memory.SaveSessionMemory(sessionGUID, transcript); err != nil {
		d.logger.Error("session memory save failed", "session", sessionGUID, "error", err.Error())
	}
}

func (d *Dispatcher) sessionLock(sessionGUID string) *sync.Mutex {
	d.sessionMu.Lock()
	defer d.sessionMu.Unlock()
	lock, ok := d.sessionLocks[sessionGUID]
	if !ok {
		lock = &sync.Mutex{}
		d.sessionLocks[sessionGUID] = lock
	}
	return lock
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
