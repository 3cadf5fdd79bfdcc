package handler

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"transcribe-api/dto"
	"transcribe-api/service"
)

type HttpHandler struct {
	recordings service.RecordingService
	analysis   service.AnalysisService
}

func NewHttpHandler(recordings service.RecordingService, analysis service.AnalysisService) *HttpHandler {
	return &HttpHandler{recordings: recordings, analysis: analysis}
}

func (h *HttpHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/upload-audio", h.Upload)
	r.POST("/process-transcript/:file_id", h.Analyze)
	r.GET("/download-processed/:file_id", h.DownloadSummary)

	transcriptions := r.Group("/transcriptions")
	{
		transcriptions.GET("", h.List)
		transcriptions.GET("/:id", h.Get)
		transcriptions.DELETE("/:id", h.Delete)
		transcriptions.GET("/:id/audio", h.StreamAudio)
	}
}

func (h *HttpHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Code: "BAD_REQUEST", Detail: "no file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", service.ErrStorageFailure, err))
		return
	}
	defer file.Close()

	recording, err := h.recordings.Upload(c.Request.Context(), service.UploadInput{
		Filename:  fileHeader.Filename,
		MediaType: fileHeader.Header.Get("Content-Type"),
		Size:      fileHeader.Size,
		Body:      file,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Message:  "Audio file uploaded successfully",
		FileId:   recording.ID,
		Filename: recording.OriginalFilename,
	})
}

// Analyze accepts title, prompt and async as query parameters or as a JSON body; query
// values win.
func (h *HttpHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if c.Request.ContentLength > 0 && c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Code: "BAD_REQUEST", Detail: err.Error()})
			return
		}
	}
	if v, ok := c.GetQuery("title"); ok {
		req.Title = v
	}
	if v, ok := c.GetQuery("prompt"); ok {
		req.Prompt = v
	}
	if v, ok := c.GetQuery("async"); ok {
		async, err := strconv.ParseBool(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Code: "BAD_REQUEST", Detail: "async must be a boolean"})
			return
		}
		req.Async = async
	}

	in := service.AnalyzeInput{
		RecordingId: c.Param("file_id"),
		Title:       req.Title,
		Prompt:      req.Prompt,
	}

	if req.Async {
		if err := h.analysis.Enqueue(c.Request.Context(), in); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.AcceptedResponse{Message: "Audio queued for processing", FileId: in.RecordingId})
		return
	}

	recording, err := h.analysis.Analyze(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalyzeResponse{
		Message:    "Audio processed successfully",
		FileId:     recording.ID,
		Title:      recording.Title,
		Transcript: recording.Transcript,
		Summary:    recording.Summary,
	})
}

func (h *HttpHandler) List(c *gin.Context) {
	items, err := h.recordings.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HttpHandler) Get(c *gin.Context) {
	detail, err := h.recordings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *HttpHandler) Delete(c *gin.Context) {
	if err := h.recordings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Transcription deleted successfully"})
}

func (h *HttpHandler) StreamAudio(c *gin.Context) {
	recording, err := h.recordings.Audio(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition("inline", recording.OriginalFilename))
	c.Header("Accept-Ranges", "none")
	c.Data(http.StatusOK, recording.AudioMimeType, recording.AudioData)
}

func (h *HttpHandler) DownloadSummary(c *gin.Context) {
	id := c.Param("file_id")
	_, document, err := h.recordings.SummaryDocument(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", contentDisposition("attachment", fmt.Sprintf("processed_transcript_%s.txt", id)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", document)
}

func contentDisposition(kind, filename string) string {
	return mime.FormatMediaType(kind, map[string]string{"filename": filename})
}
