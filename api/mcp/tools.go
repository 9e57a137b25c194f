package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/scout/api/novelty"
	"github.com/papercomputeco/scout/pkg/topic"
)

var (
	checkNoveltyToolName    = "check_novelty"
	checkNoveltyDescription = "Check candidate video topics against the memory of used topics. Returns a verdict per candidate (distance to the nearest used topic and whether it is fresh) and the fresh candidates ranked by score. Nothing is committed."

	listTopicsToolName    = "list_topics"
	listTopicsDescription = "List topics already used, oldest first."

	commitTopicToolName    = "commit_topic"
	commitTopicDescription = "Record a topic as used so that future novelty checks reject it and anything too similar."
)

// ListTopicsInput limits the listing to the most recent topics.
type ListTopicsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"return only the most recent N topics (default: all)"`
}

// ListTopicsOutput is the stored topics and the total count.
type ListTopicsOutput struct {
	Topics []topic.Record `json:"topics"`
	Count  int            `json:"count"`
}

// CommitTopicInput is the topic to record.
type CommitTopicInput struct {
	Title         string  `json:"title" jsonschema:"the topic title to record as used"`
	Score         float64 `json:"score,omitempty" jsonschema:"optional score the topic was selected with"`
	Justification string  `json:"justification,omitempty" jsonschema:"optional reason the topic was selected"`
}

// CommitTopicOutput reports whether the topic was new.
type CommitTopicOutput struct {
	ID    string `json:"id"`
	Added bool   `json:"added"`
	Count int    `json:"count"`
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// toolResult also serializes the structured output into a text block for
// clients that ignore structured content.
func toolResult(out any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func (s *Server) handleCheckNovelty(ctx context.Context, _ *mcp.CallToolRequest, input novelty.CheckInput) (*mcp.CallToolResult, novelty.CheckOutput, error) {
	if len(input.Candidates) == 0 {
		return toolError("at least one candidate is required"), novelty.CheckOutput{}, nil
	}

	out, err := novelty.Check(ctx, s.config.Cycle.Checker(), input, s.config.Cycle.Threshold(), s.config.Logger)
	if err != nil {
		s.config.Logger.Error("novelty check failed", "error", err)
		return toolError("Novelty check failed: %v", err), novelty.CheckOutput{}, nil
	}

	result, err := toolResult(out)
	if err != nil {
		return toolError("Failed to serialize results: %v", err), novelty.CheckOutput{}, nil
	}
	return result, *out, nil
}

func (s *Server) handleListTopics(ctx context.Context, _ *mcp.CallToolRequest, input ListTopicsInput) (*mcp.CallToolResult, ListTopicsOutput, error) {
	records, err := s.config.Cycle.Store().List(ctx)
	if err != nil {
		s.config.Logger.Error("listing topics failed", "error", err)
		return toolError("Listing topics failed: %v", err), ListTopicsOutput{}, nil
	}

	count := len(records)
	if input.Limit > 0 && input.Limit < len(records) {
		records = records[len(records)-input.Limit:]
	}

	out := ListTopicsOutput{Topics: records, Count: count}
	result, err := toolResult(out)
	if err != nil {
		return toolError("Failed to serialize results: %v", err), ListTopicsOutput{}, nil
	}
	return result, out, nil
}

func (s *Server) handleCommitTopic(ctx context.Context, _ *mcp.CallToolRequest, input CommitTopicInput) (*mcp.CallToolResult, CommitTopicOutput, error) {
	cand := topic.Candidate{
		Title:         input.Title,
		Score:         input.Score,
		Justification: input.Justification,
	}

	s.config.Lock.Lock()
	defer s.config.Lock.Unlock()

	added, err := s.config.Cycle.CommitCandidate(ctx, cand)
	if err != nil {
		s.config.Logger.Error("commit failed", "title", input.Title, "error", err)
		return toolError("Commit failed: %v", err), CommitTopicOutput{}, nil
	}

	count, err := s.config.Cycle.Store().Count(ctx)
	if err != nil {
		return toolError("Counting topics failed: %v", err), CommitTopicOutput{}, nil
	}

	out := CommitTopicOutput{ID: cand.ID(), Added: added, Count: count}
	result, err := toolResult(out)
	if err != nil {
		return toolError("Failed to serialize results: %v", err), CommitTopicOutput{}, nil
	}
	return result, out, nil
}
