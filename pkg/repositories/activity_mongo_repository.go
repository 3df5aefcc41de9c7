package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/projectvault/projectvault/pkg/models"
)

// ActivityCollection is the MongoDB collection holding activity documents.
const ActivityCollection = "activities"

// activityDocument is the stored shape of an activity. IDs are kept as
// strings so documents stay readable from the mongo shell.
type activityDocument struct {
	ID          string         `bson:"_id"`
	UserID      string         `bson:"user_id"`
	Type        string         `bson:"type"`
	Title       string         `bson:"title"`
	Description string         `bson:"description"`
	ProjectID   string         `bson:"project_id,omitempty"`
	Metadata    map[string]any `bson:"metadata,omitempty"`
	CreatedAt   time.Time      `bson:"created_at"`
}

type mongoActivityRepository struct {
	activities *mongo.Collection
}

// NewMongoActivityRepository creates an activity repository backed by MongoDB.
func NewMongoActivityRepository(db *mongo.Database) ActivityRepository {
	return &mongoActivityRepository{activities: db.Collection(ActivityCollection)}
}

var _ ActivityRepository = (*mongoActivityRepository)(nil)

// EnsureActivityIndexes creates the feed index. Safe to call on every start.
func EnsureActivityIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ActivityCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create activity index: %w", err)
	}
	return nil
}

func (r *mongoActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	doc := activityDocument{
		ID:          activity.ID.String(),
		UserID:      activity.UserID.String(),
		Type:        activity.Type,
		Title:       activity.Title,
		Description: activity.Description,
		Metadata:    activity.Metadata,
		CreatedAt:   activity.CreatedAt.UTC(),
	}
	if activity.ProjectID != nil {
		doc.ProjectID = activity.ProjectID.String()
	}

	if _, err := r.activities.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

func (r *mongoActivityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.activities.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := make([]*models.Activity, 0)
	for cursor.Next(ctx) {
		var doc activityDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}

		a, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

func (d *activityDocument) toModel() (*models.Activity, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid activity user id %q: %w", d.UserID, err)
	}

	a := &models.Activity{
		ID:          id,
		UserID:      userID,
		Type:        d.Type,
		Title:       d.Title,
		Description: d.Description,
		Metadata:    d.Metadata,
		CreatedAt:   d.CreatedAt,
	}
	if d.ProjectID != "" {
		projectID, err := uuid.Parse(d.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("invalid activity project id %q: %w", d.ProjectID, err)
		}
		a.ProjectID = &projectID
	}

	return a, nil
}
