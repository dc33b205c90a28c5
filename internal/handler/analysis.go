package handler

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/chivescore/api/internal/model"
	"github.com/chivescore/api/internal/service"
	"github.com/chivescore/api/internal/store"
	"github.com/chivescore/api/pkg/response"
)

type AnalysisHandler struct {
	submissions *service.SubmissionService
	statuses    *service.StatusService
	poller      *service.ResultPoller
	validator   *validator.Validate
}

func NewAnalysisHandler(
	submissions *service.SubmissionService,
	statuses *service.StatusService,
	poller *service.ResultPoller,
	v *validator.Validate,
) *AnalysisHandler {
	return &AnalysisHandler{
		submissions: submissions,
		statuses:    statuses,
		poller:      poller,
		validator:   v,
	}
}

// Submit handles POST /api/chives/submit. Expects a multipart form with one
// or more "images" files plus submittedBy/subreddit/postId fields. Responds
// 202 with the job ids in submission order.
func (h *AnalysisHandler) Submit(c *fiber.Ctx) error {
	req := model.SubmitRequest{
		SubmittedBy: c.FormValue("submittedBy"),
		Subreddit:   c.FormValue("subreddit"),
		PostID:      c.FormValue("postId"),
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "Invalid multipart form", nil)
	}

	files := form.File["images"]
	if len(files) == 0 {
		return response.ValidationError(c, "At least one image is required", nil)
	}

	images := make([]model.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return response.ValidationError(c, "Unreadable image upload", nil)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return response.ValidationError(c, "Unreadable image upload", nil)
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		images = append(images, model.ImageUpload{Data: data, MimeType: mimeType})
	}

	jobIDs, err := h.submissions.Submit(c.Context(), &req, images)
	if err != nil {
		if errors.Is(err, service.ErrNoImages) {
			return response.ValidationError(c, "At least one image is required", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, model.SubmitResponse{JobIDs: jobIDs})
}

// Status handles GET /api/chives/status/:jobId
func (h *AnalysisHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.statuses.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Wait handles GET /api/chives/wait/:jobId. Runs the result poller and
// returns the terminal outcome, or 202 if the job is still processing when
// the attempt budget runs out.
func (h *AnalysisHandler) Wait(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, outcome, err := h.poller.Wait(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	if outcome == service.PollTimedOut {
		return response.Accepted(c, model.StatusResponse{
			JobID:  jobID,
			Status: model.JobStatusPending,
		})
	}

	return response.OK(c, result)
}

func formatValidationErrors(err error) []string {
	var details []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, fe.Field()+" failed on "+fe.Tag())
		}
	}
	return details
}
