package video

import (
	"errors"
	"os"
	"path/filepath"

	"storyreel/internal/core/job"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	jobs  *job.Service
	video *Service
}

func NewHandler(jobs *job.Service, video *Service) *Handler {
	return &Handler{jobs: jobs, video: video}
}

func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid body"})
	}
	id, err := h.video.Enqueue(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(CreateResponse{
		Success:   true,
		JobID:     id,
		StatusURL: "/v1/videos/" + id,
	})
}

func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	id := c.Params("jobId")
	j, err := h.jobs.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "status lookup failed"})
	}
	return c.JSON(j)
}

// HandleFile streams the finished artifact from local disk. A job that never
// produced a file, or an unknown id, is a plain not-found.
func (h *Handler) HandleFile(c *fiber.Ctx) error {
	id := c.Params("jobId")
	path := filepath.Join(h.video.cfg.DataDir, "videos", "video_"+id+".mp4")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not_found"})
	}
	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}
