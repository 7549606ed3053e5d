// Package api exposes the ingestion pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/Lllllllleong/pdfinsight/internal/models"
	"github.com/Lllllllleong/pdfinsight/internal/services"
)

// DocumentProcessor analyses a single staged PDF.
type DocumentProcessor interface {
	ProcessNamed(ctx context.Context, pdfPath, originalFilename, prompt string) models.DocumentResult
}

// BatchProcessor analyses a list of PDFs sequentially.
type BatchProcessor interface {
	ProcessAll(ctx context.Context, pdfPaths []string, prompt string, progress services.BatchProgress) models.BatchResult
}

// JobRunner runs project batches in the background.
type JobRunner interface {
	Submit(name string, total int, fn services.JobFunc) (string, error)
	Get(id string) (models.JobRecord, bool)
}

// Handler serves the upload, project and job endpoints.
type Handler struct {
	documents DocumentProcessor
	batches   BatchProcessor
	jobs      JobRunner
	dataDir   string
	findPDFs  func(dataDir, projectID string) ([]string, error)
}

func NewHandler(documents DocumentProcessor, batches BatchProcessor, jobs JobRunner, dataDir string) *Handler {
	return &Handler{
		documents: documents,
		batches:   batches,
		jobs:      jobs,
		dataDir:   dataDir,
		findPDFs:  services.FindProjectPDFs,
	}
}

// Upload handles POST /api/upload. The PDF is staged in a scratch directory
// under its original base name and processed synchronously.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Uploaded file is too large."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded."})
		return
	}

	originalFilename := filepath.Base(fileHeader.Filename)
	if originalFilename == "." || originalFilename == string(filepath.Separator) {
		originalFilename = "upload.pdf"
	}
	logCtx := slog.With("originalFilename", originalFilename, "size", fileHeader.Size)

	isPDF, err := sniffPDF(fileHeader)
	if err != nil {
		logCtx.Error("Failed to read uploaded file.", "error", err)
		uploadFailed(c, err)
		return
	}
	if !isPDF {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Uploaded file is not a PDF."})
		return
	}

	tempDir, err := os.MkdirTemp("", "pdf-upload-*")
	if err != nil {
		logCtx.Error("Failed to create temp dir.", "error", err)
		uploadFailed(c, err)
		return
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, originalFilename)
	if err := c.SaveUploadedFile(fileHeader, pdfPath); err != nil {
		logCtx.Error("Failed to stage uploaded file.", "error", err)
		uploadFailed(c, err)
		return
	}

	result := h.documents.ProcessNamed(c.Request.Context(), pdfPath, originalFilename, c.PostForm("prompt"))
	failed := result.FailedCount()
	logCtx.Info("Upload processed.", "pages", len(result), "failedPages", failed)

	message := "All pages processed successfully."
	if failed > 0 {
		message = fmt.Sprintf("Processed %d pages successfully. %d pages failed to process.", len(result)-failed, failed)
	}
	results := make([]any, 0, len(result))
	for _, o := range result {
		results = append(results, o.ModelResponse)
	}
	c.JSON(http.StatusOK, models.UploadResponse{Message: message, Results: results})
}

func uploadFailed(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.UploadResponse{
		Message: "Error processing PDF.",
		Results: []any{"Error: " + err.Error()},
	})
}

func sniffPDF(fileHeader *multipart.FileHeader) (bool, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return false, err
	}
	defer f.Close()
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return false, err
	}
	return mtype.Is("application/pdf"), nil
}

// ProcessProject handles GET /api/process-project/:projectId. It acknowledges
// with 202 once the batch is scheduled; progress is visible under /api/jobs.
func (h *Handler) ProcessProject(c *gin.Context) {
	projectID := c.Param("projectId")
	if err := services.ValidateProjectID(projectID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var req models.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Request body must be JSON of the form {\"prompt\": \"...\"}."})
		return
	}

	logCtx := slog.With("projectId", projectID)
	files, err := h.findPDFs(h.dataDir, projectID)
	if err != nil {
		logCtx.Error("Error finding PDFs for project.", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error finding PDF files."})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("No PDF files found for project ID %s.", projectID)})
		return
	}

	prompt := req.Prompt
	jobID, err := h.jobs.Submit(projectID, len(files), func(ctx context.Context, report services.JobReporter) error {
		failedPages := 0
		batch := h.batches.ProcessAll(ctx, files, prompt, func(summary models.DocumentSummary, done, _ int) {
			failedPages += summary.FailedPages
			report(done, failedPages)
		})
		logCtx.Info(fmt.Sprintf("Finished processing all PDFs for project %s.", projectID),
			"attempted", batch.Attempted, "failedPages", batch.FailedPages)
		return ctx.Err()
	})
	if err != nil {
		logCtx.Error("Failed to schedule project batch.", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Server is shutting down."})
		return
	}

	logCtx.Info("Project batch scheduled.", "jobId", jobID, "files", len(files))
	c.JSON(http.StatusAccepted, models.ProjectAccepted{
		Message: fmt.Sprintf("Started processing %d PDF files for project ID %s.", len(files), projectID),
		JobID:   jobID,
		Files:   len(files),
	})
}

// Job handles GET /api/jobs/:jobId.
func (h *Handler) Job(c *gin.Context) {
	job, ok := h.jobs.Get(c.Param("jobId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found."})
		return
	}
	c.JSON(http.StatusOK, job)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pdfinsight",
	})
}
