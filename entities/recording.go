package entities

import (
	"time"

	"transcribe-api/constant"
	"transcribe-api/dto"
)

// Recording is one uploaded audio file together with its analysis.
type Recording struct {
	ID               string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title            string    `json:"title" gorm:"type:varchar(255);not null"`
	OriginalFilename string    `json:"original_filename" gorm:"type:varchar(500)"`
	AudioData        []byte    `json:"-" gorm:"column:audio_data"`
	AudioMimeType    string    `json:"audio_mime_type" gorm:"column:audio_mime_type;type:varchar(100)"`
	Transcript       string    `json:"transcript" gorm:"type:text"`
	Summary          string    `json:"summary" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;index:idx_transcriptions_created_at"`
	Segments         []Segment `json:"segments" gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE"`
}

func (Recording) TableName() string {
	return "transcriptions"
}

// HasAudio reports whether the payload and its media type are both present.
func (r *Recording) HasAudio() bool {
	return len(r.AudioData) > 0 && r.AudioMimeType != ""
}

func (r *Recording) IsAnalyzed() bool {
	return r.Transcript != "" || r.Summary != ""
}

// ToDetail projects the recording and its loaded segments for the detail view.
func (r *Recording) ToDetail() dto.RecordingDetail {
	segments := make([]dto.SegmentView, 0, len(r.Segments))
	for _, s := range r.Segments {
		segments = append(segments, dto.SegmentView{Timestamp: s.Timestamp, Text: s.Text})
	}
	return dto.RecordingDetail{
		Id:        r.ID,
		Title:     r.Title,
		CreatedAt: createdAt(r.CreatedAt),
		Summary:   r.Summary,
		Segments:  segments,
	}
}

// ToListItem projects the condensed list view. duration is the last segment's
// timestamp, or empty when the recording was never analyzed.
func (r *Recording) ToListItem(duration string) dto.RecordingListItem {
	if duration == "" {
		duration = constant.EmptyDuration
	}
	return dto.RecordingListItem{
		Id:        r.ID,
		Title:     r.Title,
		CreatedAt: createdAt(r.CreatedAt),
		Duration:  duration,
	}
}

func createdAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
