package handler

import (
	"context"
	"net/http"
	"time"

	"storycraft/internal/model"
	"storycraft/internal/service"
	"storycraft/internal/utils"
	"storycraft/pkg/logger"

	"github.com/gin-gonic/gin"
)

const sseHeartbeat = 15 * time.Second

// StoryHandler serves the JSON API.
type StoryHandler struct {
	stories   *service.StoryService
	tracker   *service.SubmissionTracker
	maxUpload int64
}

func NewStoryHandler(stories *service.StoryService, tracker *service.SubmissionTracker, maxUpload int64) *StoryHandler {
	return &StoryHandler{
		stories:   stories,
		tracker:   tracker,
		maxUpload: maxUpload,
	}
}

func (h *StoryHandler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

// CreateStory generates and stores a story within the request. A client that
// goes away does not cancel generation: the story is still stored.
func (h *StoryHandler) CreateStory(c *gin.Context) {
	req, err := bindCreateRequest(c, h.maxUpload)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	story, err := h.stories.Create(ctx, service.RawInputFromRequest(req))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/stories/"+story.ID)
	c.JSON(http.StatusCreated, story)
}

// CreateSubmission queues a story and answers immediately with its submission.
func (h *StoryHandler) CreateSubmission(c *gin.Context) {
	req, err := bindCreateRequest(c, h.maxUpload)
	if err != nil {
		h.writeError(c, err)
		return
	}

	sub, err := h.tracker.Submit(service.RawInputFromRequest(req))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", "/api/submissions/"+sub.ID)
	c.JSON(http.StatusAccepted, sub)
}

func (h *StoryHandler) GetSubmission(c *gin.Context) {
	sub, err := h.tracker.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// SubmissionEvents streams the submission state as SSE until it is terminal.
func (h *StoryHandler) SubmissionEvents(c *gin.Context) {
	id := c.Param("id")
	sub, err := h.tracker.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	sse := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)
	if err := sse.WriteJSON("state", sub); err != nil {
		return
	}
	if sub.State.Terminal() {
		sse.Close()
		return
	}

	ctx := c.Request.Context()
	final := make(chan *model.Submission, 1)
	go func(ctx context.Context) {
		s, _ := h.tracker.Wait(ctx, id)
		final <- s
	}(ctx)

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case s := <-final:
			if s == nil || !s.State.Terminal() {
				return
			}
			if err := sse.WriteJSON("state", s); err != nil {
				logger.Warnf("Failed to write SSE: %v", err)
				return
			}
			sse.Close()
			return
		case <-ticker.C:
			if err := sse.Ping(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *StoryHandler) ListStories(c *gin.Context) {
	var q model.ListStoriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, model.NewValidationError("invalid query", err))
		return
	}

	stories, total, err := h.stories.ListStories(c.Request.Context(), q.Offset, q.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := model.StoryListResponse{
		Stories: make([]model.StorySummary, 0, len(stories)),
		Total:   total,
		Offset:  q.Offset,
		Limit:   service.ClampLimit(q.Limit),
	}
	for _, s := range stories {
		resp.Stories = append(resp.Stories, s.Summary())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoryHandler) GetStory(c *gin.Context) {
	story, err := h.stories.GetStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}
