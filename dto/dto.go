package dto

import "time"

type UploadResponse struct {
	Message  string `json:"message"`
	FileId   string `json:"file_id"`
	Filename string `json:"filename"`
}

// AnalyzeRequest is accepted both as query parameters and as a JSON body.
type AnalyzeRequest struct {
	Title  string `json:"title" form:"title"`
	Prompt string `json:"prompt" form:"prompt"`
	Async  bool   `json:"async" form:"async"`
}

type AnalyzeResponse struct {
	Message    string `json:"message"`
	FileId     string `json:"file_id"`
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

type AcceptedResponse struct {
	Message string `json:"message"`
	FileId  string `json:"file_id"`
}

type RecordingListItem struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt *time.Time `json:"created_at"`
	Duration  string     `json:"duration"`
}

type SegmentView struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type RecordingDetail struct {
	Id        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt *time.Time    `json:"created_at"`
	Summary   string        `json:"summary"`
	Segments  []SegmentView `json:"transcript"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// AnalysisMessage is published to the analysis queue for asynchronous processing.
type AnalysisMessage struct {
	RecordingId string `json:"recordingId"`
	Title       string `json:"title,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}
