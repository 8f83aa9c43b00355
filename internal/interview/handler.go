package interview

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"quali-backend/internal/cvminute"
	"quali-backend/internal/extract"
	"quali-backend/internal/llm"
	"quali-backend/internal/shared/server/middleware"
	"quali-backend/internal/shared/server/respond"
	"quali-backend/internal/shared/util"
)

// maxAudioBytes caps the uploaded voice answer at 25 MB, the upstream
// transcription limit.
const maxAudioBytes = 25 << 20

// Handler wires HTTP handlers to the interview service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the interview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/quali-carriere")
	g.POST("/advance", h.advance)
	g.POST("/questions/:id/response", h.submitResponse)
	g.POST("/chat", h.chat)
	g.GET("/history", h.history)
}

func (h *Handler) advance(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	adv, err := h.Svc.DoAdvance(c.Request.Context(), userID)
	if err != nil {
		h.writeFailure(c, err)
		return
	}

	switch {
	case adv.NoCvMinute:
		respond.OK(c, gin.H{"noCvMinute": true})
	case adv.NoExperiences:
		respond.OK(c, gin.H{"noExperiences": true})
	case adv.NextStep():
		c.Set("interviewStep", "chat")
		respond.OK(c, gin.H{
			"nextStep":    true,
			"messages":    adv.Messages,
			"experiences": adv.Experiences,
		})
	default:
		c.Set("interviewStep", "question")
		c.Set("questionId", adv.Question.ID)
		respond.OK(c, gin.H{
			"nextQuestion": true,
			"question":     adv.Question,
		})
	}
}

type responseBody struct {
	Content string `json:"content"`
}

func (h *Handler) submitResponse(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	questionID := c.Param("id")
	if questionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question id is required", nil)
		return
	}
	c.Set("questionId", questionID)

	text, audio, audioName, err := readAnswer(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	resp, err := h.Svc.SubmitResponse(c.Request.Context(), userID, questionID, text, audio, audioName)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "question not found", nil)
		case errors.Is(err, ErrQuestionPending):
			respond.Error(c, http.StatusConflict, "question_pending", "question content not generated yet", nil)
		case errors.Is(err, ErrOutOfOrder):
			respond.Error(c, http.StatusConflict, "out_of_order", "previous question not answered", nil)
		case errors.Is(err, ErrAlreadyAnswered):
			respond.Error(c, http.StatusConflict, "already_answered", "question already answered", nil)
		case errors.Is(err, ErrEmptyMessage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "answer content is required", nil)
		default:
			h.writeFailure(c, err)
		}
		return
	}

	respond.OK(c, gin.H{"response": resp})
}

// readAnswer accepts either a JSON body with a content field or a
// multipart form carrying a content field and an optional audio file.
func readAnswer(c *gin.Context) (text string, audio []byte, audioName string, err error) {
	if form, formErr := c.MultipartForm(); formErr == nil && form != nil {
		if vals := form.Value["content"]; len(vals) > 0 {
			text = vals[0]
		}
		files := form.File["audio"]
		if len(files) == 0 {
			return text, nil, "", nil
		}
		fh := files[0]
		if fh.Size > maxAudioBytes {
			return "", nil, "", errors.New("audio file too large")
		}
		f, openErr := fh.Open()
		if openErr != nil {
			return "", nil, "", openErr
		}
		defer f.Close()
		audio, err = io.ReadAll(io.LimitReader(f, maxAudioBytes+1))
		if err != nil {
			return "", nil, "", err
		}
		if len(audio) > maxAudioBytes {
			return "", nil, "", errors.New("audio file too large")
		}
		name, nameErr := util.SanitizeFileName(fh.Filename)
		if nameErr != nil {
			name = ""
		}
		return text, audio, name, nil
	}

	var body responseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", nil, "", errors.New("invalid request body")
	}
	return body.Content, nil, "", nil
}

type chatBody struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	reply, err := h.Svc.Chat(c.Request.Context(), userID, body.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		case errors.Is(err, cvminute.ErrNotFound):
			respond.OK(c, gin.H{"noCvMinute": true})
		case errors.Is(err, ErrNoExperiences):
			respond.OK(c, gin.H{"noExperiences": true})
		case errors.Is(err, ErrInterviewRunning):
			respond.Error(c, http.StatusConflict, "interview_running", "interview still in progress", nil)
		default:
			h.writeFailure(c, err)
		}
		return
	}

	respond.OK(c, gin.H{"message": reply})
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	hist, err := h.Svc.GetHistory(c.Request.Context(), userID)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	if hist.Questions == nil {
		hist.Questions = []Question{}
	}
	if hist.Responses == nil {
		hist.Responses = []Response{}
	}
	if hist.Syntheses == nil {
		hist.Syntheses = []Synthesis{}
	}
	respond.OK(c, hist)
}

// writeFailure renders AI and storage failures. Upstream AI problems map
// to 502 with the flat flags the frontend branches on.
func (h *Handler) writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		respond.JSON(c, http.StatusBadGateway, gin.H{"openaiError": "the AI provider timed out"})
	case isUpstream(err):
		var upstream *llm.UpstreamError
		errors.As(err, &upstream)
		respond.JSON(c, http.StatusBadGateway, gin.H{"openaiError": upstream.Message})
	case errors.Is(err, extract.ErrParseFailed), errors.Is(err, extract.ErrNoData):
		respond.JSON(c, http.StatusBadGateway, gin.H{"parsingError": true})
	default:
		respond.JSON(c, http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
