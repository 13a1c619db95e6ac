package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/export"
	"github.com/ViktorAgafonov/ForecastOrder/internal/service"
)

type AnalysisHandler struct {
	analyzer  *service.Analyzer
	uploadDir string
	exportDir string
}

func NewAnalysisHandler(analyzer *service.Analyzer, uploadDir, exportDir string) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, uploadDir: uploadDir, exportDir: exportDir}
}

// Upload accepts one or more ledger files, starts an analysis run over the
// merged rows and returns the run id.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		path := filepath.Join(h.uploadDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
			continue
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid files to process"})
		return
	}

	ledger, err := h.analyzer.LoadLedgers(c.Request.Context(), paths)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	run := h.analyzer.StartAnalysis(ledger)
	c.JSON(http.StatusAccepted, gin.H{
		"run_id": run.ID,
		"status": run.Status,
	})
}

// Status reports the progress of a run.
func (h *AnalysisHandler) Status(c *gin.Context) {
	run, ok := h.analyzer.Run(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// Result returns the full output of a completed run.
func (h *AnalysisHandler) Result(c *gin.Context) {
	result, ok := h.analyzer.Result(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or not completed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recommendations returns only the reorder recommendations of a completed run.
func (h *AnalysisHandler) Recommendations(c *gin.Context) {
	result, ok := h.analyzer.Result(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or not completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": result.Recommendations})
}

// Export writes the recommendations of a completed run to an xlsx file and
// streams it back as an attachment.
func (h *AnalysisHandler) Export(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.analyzer.Result(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or not completed"})
		return
	}

	filename := "recommendations_" + time.Now().Format("20060102_150405") + ".xlsx"
	path := filepath.Join(h.exportDir, filename)
	if err := export.ToExcel(path, result.Recommendations); err != nil {
		log.Error().Err(err).Str("run_id", id).Msg("failed to export recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export recommendations"})
		return
	}

	c.FileAttachment(path, filename)
}
