package entities

// Segment is one sentence of a recording's transcript with an estimated MM:SS position.
type Segment struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RecordingID string `json:"recording_id" gorm:"column:transcription_id;type:varchar(36);not null;index:idx_transcription_segments_transcription_id"`
	Timestamp   string `json:"timestamp" gorm:"type:varchar(16)"`
	Text        string `json:"text" gorm:"type:text"`
}

func (Segment) TableName() string {
	return "transcription_segments"
}
