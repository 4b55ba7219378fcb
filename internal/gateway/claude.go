package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/pkg/collections"
)

const (
	interviewTurnTool = "record_interview_turn"
	outlineTool       = "save_book_outline"

	// DefaultConversationTTL is how long an untouched conversation is kept.
	DefaultConversationTTL = 2 * time.Hour
)

// Claude implements enhancement and the conversational interviewer on the
// Anthropic Messages API. Conversations are kept in memory keyed by session id.
type Claude struct {
	apiKey  string
	model   anthropic.Model
	options []option.RequestOption
	newID   func() string
	now     func() time.Time
	ttl     time.Duration

	mu            sync.Mutex
	conversations map[string]*conversation
}

type conversation struct {
	// turnMu serializes respond turns so each one builds on the last.
	turnMu sync.Mutex

	lastUsed  time.Time
	history   []anthropic.MessageParam
	turns     []turn
	storyType string
	themes    []string
}

type turn struct {
	interviewer bool
	text        string
}

// NewClaude creates a Claude gateway. Extra request options are applied after
// the API key.
func NewClaude(apiKey string, opts ...option.RequestOption) *Claude {
	return &Claude{
		apiKey:        apiKey,
		model:         anthropic.ModelClaudeSonnet4_5_20250929,
		options:       opts,
		newID:         uuid.NewString,
		now:           time.Now,
		ttl:           DefaultConversationTTL,
		conversations: make(map[string]*conversation),
	}
}

// interviewTurnInput defines the tool input schema for one interviewer turn.
type interviewTurnInput struct {
	Message           string   `json:"message"`
	Phase             string   `json:"phase"`
	StoryType         string   `json:"story_type"`
	Themes            []string `json:"themes"`
	InterviewComplete bool     `json:"interview_complete"`
}

func getInterviewTurnTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name:        interviewTurnTool,
		Description: anthropic.String("Record the interviewer's next message along with interview progress"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "What the interviewer says to the storyteller next",
				},
				"phase": map[string]interface{}{
					"type":        "string",
					"enum":        interviewPhases,
					"description": "The interview phase this message belongs to",
				},
				"story_type": map[string]interface{}{
					"type":        "string",
					"description": "The inferred kind of story, or an empty string if not yet clear",
				},
				"themes": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Recurring themes identified so far",
				},
				"interview_complete": map[string]interface{}{
					"type":        "boolean",
					"description": "True once there is enough material to write the story",
				},
			},
			Required: []string{"message", "phase", "story_type", "themes", "interview_complete"},
		},
	}
}

func getOutlineTool() anthropic.ToolParam {
	return anthropic.ToolParam{
		Name:        outlineTool,
		Description: anthropic.String("Save the proposed book outline"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type: "object",
			Properties: map[string]interface{}{
				"title":            map[string]interface{}{"type": "string", "description": "Working title for the book"},
				"book_type":        map[string]interface{}{"type": "string", "description": "Kind of book, e.g. memoir"},
				"estimated_length": map[string]interface{}{"type": "string", "description": "Estimated length in words"},
				"themes": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"chapters": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"title": map[string]interface{}{"type": "string"},
							"theme": map[string]interface{}{"type": "string"},
						},
						"required": []string{"title", "theme"},
					},
				},
			},
			Required: []string{"title", "book_type", "estimated_length", "themes", "chapters"},
		},
	}
}

func (c *Claude) client() (anthropic.Client, error) {
	if c.apiKey == "" {
		return anthropic.Client{}, fmt.Errorf(
			"%w: API key required: set ANTHROPIC_API_KEY or run 'lifebooks config set-key anthropic'",
			apperr.ErrGatewayUnavailable,
		)
	}

	return anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(c.apiKey)}, c.options...)...), nil
}

// Enhance rewrites text in the given style. Blank text is returned unchanged.
func (c *Claude) Enhance(ctx context.Context, text string, style Style) (string, error) {
	if isBlank(text) {
		return text, nil
	}

	client, err := c.client()
	if err != nil {
		return text, err
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: EnhanceSystemPrompt(style)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return text, wrapUnavailable("failed to enhance text via Anthropic API", err)
	}

	enhanced, err := firstText(resp.Content)
	if err != nil {
		return text, wrapUnavailable("failed to read enhanced text", err)
	}

	return strings.TrimSpace(enhanced), nil
}

// StartConversation opens a new interview and returns the opening question.
func (c *Claude) StartConversation(ctx context.Context) (ConversationStart, error) {
	conv := &conversation{
		history: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(OpenerPrompt)),
		},
	}

	out, err := c.interviewTurn(ctx, conv.history)
	if err != nil {
		return ConversationStart{}, err
	}

	conv.record(out)

	id := c.newID()

	c.mu.Lock()
	c.evictIdle()
	conv.lastUsed = c.now()
	c.conversations[id] = conv
	c.mu.Unlock()

	slog.Info("conversation started", "session_id", id, "phase", out.Phase)

	return ConversationStart{
		SessionID:      id,
		FirstPrompt:    out.Message,
		TerminalPhases: []string{PhaseComplete},
	}, nil
}

// ContinueConversation sends the user's message and returns the interviewer's reply.
func (c *Claude) ContinueConversation(ctx context.Context, sessionID, message string) (ConversationReply, error) {
	if isBlank(message) {
		return ConversationReply{}, apperr.ErrEmptyAnswer
	}

	conv, err := c.lookup(sessionID)
	if err != nil {
		return ConversationReply{}, err
	}

	conv.turnMu.Lock()
	defer conv.turnMu.Unlock()

	c.mu.Lock()
	history := append(slices.Clone(conv.history),
		anthropic.NewUserMessage(anthropic.NewTextBlock(message)))
	c.mu.Unlock()

	out, err := c.interviewTurn(ctx, history)
	if err != nil {
		return ConversationReply{}, err
	}

	c.mu.Lock()
	conv.history = history
	conv.turns = append(conv.turns, turn{text: message})
	conv.record(out)
	conv.lastUsed = c.now()
	themes := slices.Clone(conv.themes)
	storyType := conv.storyType
	c.mu.Unlock()

	return ConversationReply{
		Reply:             out.Message,
		Phase:             out.Phase,
		StoryType:         storyType,
		Themes:            themes,
		InterviewComplete: out.InterviewComplete,
	}, nil
}

// GenerateOutline synthesizes a book outline from the conversation so far.
func (c *Claude) GenerateOutline(ctx context.Context, sessionID string) (Outline, error) {
	conv, err := c.lookup(sessionID)
	if err != nil {
		return Outline{}, err
	}

	c.mu.Lock()
	transcript := conv.transcript()
	themes := slices.Clone(conv.themes)
	c.mu.Unlock()

	client, err := c.client()
	if err != nil {
		return Outline{}, err
	}

	tool := getOutlineTool()

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: OutlineSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(transcript)),
		},
		Tools:      []anthropic.ToolUnionParam{toolUnion(tool)},
		ToolChoice: anthropic.ToolChoiceParamOfTool(outlineTool),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return Outline{}, wrapUnavailable("failed to generate outline via Anthropic API", err)
	}

	var outline Outline
	if err := decodeToolUse(resp.Content, outlineTool, &outline); err != nil {
		return Outline{}, wrapUnavailable("failed to read outline", err)
	}

	if len(outline.Themes) == 0 {
		outline.Themes = themes
	}

	return outline, nil
}

// lookup finds a live conversation and marks it used.
func (c *Claude) lookup(sessionID string) (*conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictIdle()

	conv, ok := c.conversations[sessionID]
	if !ok {
		return nil, fmt.Errorf("conversation %q: %w", sessionID, apperr.ErrNotFound)
	}
	conv.lastUsed = c.now()

	return conv, nil
}

// evictIdle drops conversations untouched for longer than the TTL.
// Callers hold c.mu.
func (c *Claude) evictIdle() {
	if c.ttl <= 0 {
		return
	}

	cutoff := c.now().Add(-c.ttl)
	for id, conv := range c.conversations {
		if conv.lastUsed.Before(cutoff) {
			delete(c.conversations, id)
			slog.Info("conversation expired", "session_id", id)
		}
	}
}

// Conversations reports how many conversations are held in memory.
func (c *Claude) Conversations() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.conversations)
}

func (c *Claude) interviewTurn(ctx context.Context, history []anthropic.MessageParam) (interviewTurnInput, error) {
	client, err := c.client()
	if err != nil {
		return interviewTurnInput{}, err
	}

	tool := getInterviewTurnTool()

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: InterviewerSystemPrompt},
		},
		Messages:   history,
		Tools:      []anthropic.ToolUnionParam{toolUnion(tool)},
		ToolChoice: anthropic.ToolChoiceParamOfTool(interviewTurnTool),
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return interviewTurnInput{}, wrapUnavailable("failed to continue interview via Anthropic API", err)
	}

	var out interviewTurnInput
	if err := decodeToolUse(resp.Content, interviewTurnTool, &out); err != nil {
		return interviewTurnInput{}, wrapUnavailable("failed to read interview turn", err)
	}

	if isBlank(out.Message) {
		return interviewTurnInput{}, wrapUnavailable("failed to read interview turn", errors.New("interviewer message is empty"))
	}

	return out, nil
}

// record appends the interviewer turn. The assistant side of the history is
// kept as plain text so follow-up requests need no tool results.
func (conv *conversation) record(out interviewTurnInput) {
	conv.history = append(conv.history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(out.Message)))
	conv.turns = append(conv.turns, turn{interviewer: true, text: out.Message})

	if out.StoryType != "" {
		conv.storyType = out.StoryType
	}

	conv.themes = collections.AppendUnique(conv.themes, out.Themes...)
}

func (conv *conversation) transcript() string {
	var b strings.Builder

	for i, t := range conv.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}

		if t.interviewer {
			b.WriteString("Interviewer: ")
		} else {
			b.WriteString("Storyteller: ")
		}

		b.WriteString(t.text)
	}

	return b.String()
}

func toolUnion(def anthropic.ToolParam) anthropic.ToolUnionParam {
	tool := anthropic.ToolUnionParamOfTool(def.InputSchema, def.Name)
	tool.OfTool.Description = def.Description

	return tool
}

// firstText returns the first text block in a response.
func firstText(content []anthropic.ContentBlockUnion) (string, error) {
	for _, block := range content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			return text.Text, nil
		}
	}

	return "", errors.New("no text found in Anthropic API response")
}

// decodeToolUse unmarshals the input of the named tool call into out.
func decodeToolUse(content []anthropic.ContentBlockUnion, name string, out any) error {
	for _, block := range content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || toolUse.Name != name {
			continue
		}

		inputBytes, err := json.Marshal(toolUse.Input)
		if err != nil {
			return fmt.Errorf("failed to marshal tool input: %w", err)
		}

		if err := json.Unmarshal(inputBytes, out); err != nil {
			return fmt.Errorf("failed to parse tool input: %w", err)
		}

		return nil
	}

	return fmt.Errorf("no %s tool use found in Anthropic API response", name)
}
