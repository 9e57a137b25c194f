package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/scout/api/novelty"
	"github.com/papercomputeco/scout/pkg/topic"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TopicsResponse lists stored topics.
type TopicsResponse struct {
	Topics []topic.Record `json:"topics"`
	Count  int            `json:"count"`
}

// CountResponse is the number of stored topics.
type CountResponse struct {
	Count int `json:"count"`
}

// CommitRequest is an explicitly chosen topic. Text is accepted as an alias
// of Title.
type CommitRequest struct {
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// CommitResponse reports the stored ID and whether the topic was new.
type CommitResponse struct {
	ID    string `json:"id"`
	Added bool   `json:"added"`
	Count int    `json:"count"`
}

// CycleRequest runs one discovery cycle over the given candidates.
type CycleRequest struct {
	Candidates []topic.Candidate `json:"candidates"`
	Threshold  *float64          `json:"threshold,omitempty"`
	DryRun     bool              `json:"dry_run"`
}

// CycleResponse is the cycle outcome and whether it was committed.
type CycleResponse struct {
	*topic.Outcome
	Committed bool `json:"committed"`
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, topic.ErrInvalidThreshold), errors.Is(err, topic.ErrEmptyText):
		return fiber.StatusBadRequest
	case errors.Is(err, topic.ErrPendingCommit):
		return fiber.StatusConflict
	case errors.Is(err, topic.ErrNoTopicAvailable):
		return fiber.StatusNotFound
	case errors.Is(err, topic.ErrProviderUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListTopics handles GET /v1/topics.
// Query parameters:
//   - limit (optional): return only the most recent N topics
func (s *Server) handleListTopics(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	records, err := s.cycle.Store().List(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	count := len(records)
	if limit > 0 && limit < len(records) {
		records = records[len(records)-limit:]
	}

	return c.JSON(TopicsResponse{Topics: records, Count: count})
}

// handleCountTopics handles GET /v1/topics/count.
func (s *Server) handleCountTopics(c *fiber.Ctx) error {
	count, err := s.cycle.Store().Count(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(CountResponse{Count: count})
}

// handleCommitTopic handles POST /v1/topics.
func (s *Server) handleCommitTopic(c *fiber.Ctx) error {
	var req CommitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = req.Text
	}
	cand := topic.Candidate{Title: title, Score: req.Score, Justification: req.Justification}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.cycle.CommitCandidate(c.Context(), cand)
	if err != nil {
		return s.fail(c, err)
	}

	count, err := s.cycle.Store().Count(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	status := fiber.StatusOK
	if added {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(CommitResponse{ID: cand.ID(), Added: added, Count: count})
}

// handleCheckNovelty handles POST /v1/novelty/check. Nothing is committed.
func (s *Server) handleCheckNovelty(c *fiber.Ctx) error {
	var input novelty.CheckInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	out, err := novelty.Check(c.Context(), s.cycle.Checker(), input, s.cycle.Threshold(), s.logger)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}

// handleRunCycle handles POST /v1/cycles. A cycle that selects nothing
// still answers 200 with its status.
func (s *Server) handleRunCycle(c *fiber.Ctx) error {
	var req CycleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	var opts []topic.Option
	if req.Threshold != nil {
		opts = append(opts, topic.WithThreshold(*req.Threshold))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.DryRun {
		outcome, err := s.cycle.Preview(c.Context(), req.Candidates, opts...)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(CycleResponse{Outcome: outcome})
	}

	outcome, err := s.cycle.Run(c.Context(), req.Candidates, opts...)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(CycleResponse{Outcome: outcome, Committed: outcome.Selected != nil})
}
