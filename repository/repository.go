package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"transcribe-api/entities"
)

// recordingColumns is every recording column except the audio payload.
var recordingColumns = []string{"id", "title", "original_filename", "audio_mime_type", "transcript", "summary", "created_at"}

type FindOptions struct {
	WithAudio    bool
	WithSegments bool
}

// AnalysisUpdate is written atomically: the text fields and the complete segment set.
// An empty Title leaves the stored title untouched.
type AnalysisUpdate struct {
	Transcript string
	Summary    string
	Title      string
	Segments   []entities.Segment
}

type RecordingRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB(ctx context.Context) *gorm.DB
	CreateRecording(ctx context.Context, recording *entities.Recording) error
	FindRecordingById(ctx context.Context, id string, opts FindOptions) (*entities.Recording, error)
	ListRecordings(ctx context.Context) ([]*entities.Recording, error)
	LastSegmentTimestamps(ctx context.Context, ids []string) (map[string]string, error)
	GetSegmentsByRecordingId(ctx context.Context, id string) ([]*entities.Segment, error)
	SaveAnalysis(ctx context.Context, id string, update AnalysisUpdate) error
	DeleteRecording(ctx context.Context, id string) error
}

type txKey struct{}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) RecordingRepository {
	return &repo{
		db: db,
	}
}

// GetDB returns the transaction bound to ctx, or the pool handle outside a transaction.
func (r *repo) GetDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Transaction runs callback with a transaction carried in its context. Nested calls join
// the outer transaction.
func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return callback(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(context.WithValue(ctx, txKey{}, tx))
	}, opts...)
}

func (r *repo) CreateRecording(ctx context.Context, recording *entities.Recording) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		return r.GetDB(ctx).Create(recording).Error
	})
}

func (r *repo) FindRecordingById(ctx context.Context, id string, opts FindOptions) (*entities.Recording, error) {
	query := r.GetDB(ctx)
	if !opts.WithAudio {
		query = query.Select(recordingColumns)
	}
	if opts.WithSegments {
		query = query.Preload("Segments", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	}

	recording := &entities.Recording{}
	if err := query.First(recording, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return recording, nil
}

func (r *repo) ListRecordings(ctx context.Context) ([]*entities.Recording, error) {
	var recordings []*entities.Recording
	err := r.GetDB(ctx).
		Select("id", "title", "created_at").
		Order("created_at DESC").
		Order("id DESC").
		Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

func (r *repo) LastSegmentTimestamps(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	db := r.GetDB(ctx)
	lastIds := db.Model(&entities.Segment{}).
		Select("MAX(id)").
		Where("transcription_id IN ?", ids).
		Group("transcription_id")

	var segments []*entities.Segment
	err := db.Select("transcription_id", "timestamp").Where("id IN (?)", lastIds).Find(&segments).Error
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		result[s.RecordingID] = s.Timestamp
	}
	return result, nil
}

func (r *repo) GetSegmentsByRecordingId(ctx context.Context, id string) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	err := r.GetDB(ctx).Where("transcription_id = ?", id).Order("id ASC").Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *repo) SaveAnalysis(ctx context.Context, id string, update AnalysisUpdate) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		db := r.GetDB(ctx)

		updates := map[string]interface{}{
			"transcript": update.Transcript,
			"summary":    update.Summary,
		}
		if update.Title != "" {
			updates["title"] = update.Title
		}
		res := db.Model(&entities.Recording{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := db.Where("transcription_id = ?", id).Delete(&entities.Segment{}).Error; err != nil {
			return err
		}
		if len(update.Segments) == 0 {
			return nil
		}

		segments := make([]entities.Segment, len(update.Segments))
		for i, s := range update.Segments {
			segments[i] = entities.Segment{RecordingID: id, Timestamp: s.Timestamp, Text: s.Text}
		}
		return db.CreateInBatches(segments, 100).Error
	})
}

func (r *repo) DeleteRecording(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		db := r.GetDB(ctx)
		if err := db.Where("transcription_id = ?", id).Delete(&entities.Segment{}).Error; err != nil {
			return err
		}
		res := db.Where("id = ?", id).Delete(&entities.Recording{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
