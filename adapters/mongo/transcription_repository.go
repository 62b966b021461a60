package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

const transcriptionCollection = "transcriptions"

// TranscriptionRepository stores ASR history in MongoDB
type TranscriptionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.TranscriptionRepository = (*TranscriptionRepository)(nil)

// NewTranscriptionRepository creates the repository and ensures its indexes
func NewTranscriptionRepository(ctx context.Context, db *mongo.Database, logger *zap.Logger) (*TranscriptionRepository, error) {
	r := &TranscriptionRepository{
		collection: db.Collection(transcriptionCollection),
		logger:     logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *TranscriptionRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// owner history listing, newest first
	ownerCreatedIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}

	// retention sweeps
	createdIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		ownerCreatedIndex,
		createdIndex,
	})
	if err != nil {
		r.logger.Error("Failed to create transcription indexes", zap.Error(err))
		return fmt.Errorf("failed to create transcription indexes: %w", err)
	}

	r.logger.Info("Transcription indexes created successfully")
	return nil
}

// Create inserts a new record
func (r *TranscriptionRepository) Create(ctx context.Context, record *entities.TranscriptionRecord) error {
	if record == nil {
		return errors.New("transcription cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		r.logger.Error("Failed to create transcription",
			zap.Error(err),
			zap.String("owner_id", record.OwnerID))
		return fmt.Errorf("failed to create transcription: %w", err)
	}

	r.logger.Debug("Transcription created",
		zap.String("transcription_id", record.ID),
		zap.String("owner_id", record.OwnerID))
	return nil
}

// GetByID retrieves a record by its ID
func (r *TranscriptionRepository) GetByID(ctx context.Context, id string) (*entities.TranscriptionRecord, error) {
	if id == "" {
		return nil, errors.New("transcription ID cannot be empty")
	}

	var record entities.TranscriptionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTranscriptionNotFound
		}
		r.logger.Error("Failed to get transcription by ID", zap.Error(err), zap.String("transcription_id", id))
		return nil, err
	}

	return &record, nil
}

// ListRecent retrieves an owner's records, most recent first
func (r *TranscriptionRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]*entities.TranscriptionRecord, error) {
	if ownerID == "" {
		return nil, errors.New("owner ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		r.logger.Error("Failed to list transcriptions", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*entities.TranscriptionRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode transcriptions", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// DeleteOlderThan removes records created before cutoff
func (r *TranscriptionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		r.logger.Error("Failed to delete old transcriptions", zap.Error(err))
		return 0, err
	}

	if result.DeletedCount > 0 {
		r.logger.Info("Deleted old transcriptions",
			zap.Int64("count", result.DeletedCount),
			zap.Time("cutoff", cutoff))
	}

	return result.DeletedCount, nil
}
