package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"storycraft/internal/model"
	"storycraft/internal/render"
	"storycraft/internal/service"
	"storycraft/pkg/logger"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	libraryPageSize = 10
	recentCount     = 5
	pendingRefresh  = 3
)

// LoadTemplates parses the embedded page templates for gin's HTML renderer.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// WebHandler serves the HTML pages.
type WebHandler struct {
	stories   *service.StoryService
	tracker   *service.SubmissionTracker
	renderer  *render.Renderer
	maxUpload int64
}

func NewWebHandler(stories *service.StoryService, tracker *service.SubmissionTracker, renderer *render.Renderer, maxUpload int64) *WebHandler {
	return &WebHandler{
		stories:   stories,
		tracker:   tracker,
		renderer:  renderer,
		maxUpload: maxUpload,
	}
}

func (h *WebHandler) Index(c *gin.Context) {
	h.renderForm(c, http.StatusOK, &model.CreateStoryRequest{}, "")
}

func (h *WebHandler) renderForm(c *gin.Context, status int, req *model.CreateStoryRequest, msg string) {
	recent, _, err := h.stories.ListStories(c.Request.Context(), 0, recentCount)
	if err != nil {
		logger.Warnf("Could not load recent stories: %v", err)
	}

	genre, _ := model.ParseGenre(req.Genre)
	length, _ := model.ParseLength(req.Length)

	c.HTML(status, "index.html", gin.H{
		"Error":   msg,
		"Prompt":  req.Prompt,
		"Genre":   genre,
		"Length":  length,
		"Genres":  model.Genres,
		"Lengths": model.Lengths,
		"Recent":  recent,
	})
}

// Generate accepts the form, queues the story and sends the browser to the
// pending page.
func (h *WebHandler) Generate(c *gin.Context) {
	req, err := bindCreateRequest(c, h.maxUpload)
	if err != nil {
		// keep what the user typed when the upload is rejected
		h.formError(c, &model.CreateStoryRequest{
			Prompt: c.PostForm("prompt"),
			Genre:  c.PostForm("genre"),
			Length: c.PostForm("length"),
		}, err)
		return
	}

	sub, err := h.tracker.Submit(service.RawInputFromRequest(req))
	if err != nil {
		h.formError(c, req, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/submissions/"+sub.ID)
}

func (h *WebHandler) formError(c *gin.Context, req *model.CreateStoryRequest, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("Form submission failed: %v", err)
	}
	h.renderForm(c, status, req, msg)
}

func (h *WebHandler) Submission(c *gin.Context) {
	sub, err := h.tracker.Get(c.Param("id"))
	if err != nil {
		h.errorPage(c, err)
		return
	}

	switch sub.State {
	case model.SubmissionSucceeded:
		c.Redirect(http.StatusSeeOther, "/story/"+sub.StoryID)
	case model.SubmissionFailed:
		c.HTML(http.StatusOK, "pending.html", gin.H{
			"Title":      "Generation failed",
			"Submission": sub,
		})
	default:
		c.HTML(http.StatusOK, "pending.html", gin.H{
			"Title":      "Writing",
			"Refresh":    pendingRefresh,
			"Submission": sub,
		})
	}
}

func (h *WebHandler) Story(c *gin.Context) {
	story, err := h.stories.GetStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errorPage(c, err)
		return
	}

	content, err := h.renderer.StoryHTML(story.Content)
	if err != nil {
		logger.Errorf("Render story %s: %v", story.ID, err)
		content = template.HTML(template.HTMLEscapeString(story.Content))
	}

	c.HTML(http.StatusOK, "story.html", gin.H{
		"Title":   story.Title,
		"Story":   story,
		"Content": content,
	})
}

func (h *WebHandler) Library(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	stories, total, err := h.stories.ListStories(c.Request.Context(), (page-1)*libraryPageSize, libraryPageSize)
	if err != nil {
		h.errorPage(c, err)
		return
	}

	pages := (total + libraryPageSize - 1) / libraryPageSize
	if pages == 0 {
		pages = 1
	}
	data := gin.H{
		"Title":   "Library",
		"Stories": stories,
		"Page":    page,
		"Pages":   pages,
	}
	if page > 1 {
		data["PrevPage"] = page - 1
	}
	if page < pages {
		data["NextPage"] = page + 1
	}
	c.HTML(http.StatusOK, "library.html", data)
}

func (h *WebHandler) errorPage(c *gin.Context, err error) {
	status, msg := statusFor(err)
	heading := "Something went wrong"
	if status == http.StatusNotFound {
		heading = "Not found"
	} else {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.HTML(status, "error.html", gin.H{
		"Title":   heading,
		"Heading": heading,
		"Error":   msg,
	})
}
