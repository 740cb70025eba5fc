package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/vec"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for MongoDB viewer repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. voxel
	Collection string // e.g. viewers
}

// MongoViewerRepo implements ViewerRepo on MongoDB backend.
type MongoViewerRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type viewerDoc struct {
	ViewerID  string    `bson:"viewer_id"`
	ChunkX    int       `bson:"chunk_x"`
	ChunkZ    int       `bson:"chunk_z"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoViewerRepo establishes connection and returns repository.
func NewMongoViewerRepo(cfg MongoConfig) (*MongoViewerRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "voxel"
	}
	if cfg.Collection == "" {
		cfg.Collection = "viewers"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB %s недоступна: %w", cfg.URI, err)
	}

	repo := &MongoViewerRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	logging.GetStorageLogger().Info("🍃 Подключено к MongoDB %s/%s", cfg.Database, cfg.Collection)
	return repo, nil
}

func (m *MongoViewerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "viewer_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("viewer_id_unique"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, idx)
	return err
}

// Save upserts viewer anchor.
func (m *MongoViewerRepo) Save(ctx context.Context, viewerID string, chunk vec.Vec2) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.UpdateOne(ctx,
		bson.M{"viewer_id": viewerID},
		bson.M{"$set": viewerDoc{ViewerID: viewerID, ChunkX: chunk.X, ChunkZ: chunk.Z, UpdatedAt: time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("не удалось сохранить наблюдателя %s: %w", viewerID, err)
	}
	return nil
}

// Load returns viewer anchor.
func (m *MongoViewerRepo) Load(ctx context.Context, viewerID string) (vec.Vec2, bool, error) {
	if err := validateViewerID(viewerID); err != nil {
		return vec.Vec2{}, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc viewerDoc
	err := m.collection.FindOne(ctx, bson.M{"viewer_id": viewerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return vec.Vec2{}, false, nil
	}
	if err != nil {
		return vec.Vec2{}, false, fmt.Errorf("не удалось загрузить наблюдателя %s: %w", viewerID, err)
	}
	return vec.Vec2{X: doc.ChunkX, Z: doc.ChunkZ}, true, nil
}

// Delete removes viewer document.
func (m *MongoViewerRepo) Delete(ctx context.Context, viewerID string) error {
	if err := validateViewerID(viewerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"viewer_id": viewerID})
	if err != nil {
		return fmt.Errorf("не удалось удалить наблюдателя %s: %w", viewerID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrViewerNotFound, viewerID)
	}
	return nil
}

// BatchSave upserts anchors in one bulk write.
func (m *MongoViewerRepo) BatchSave(ctx context.Context, anchors map[string]vec.Vec2) error {
	if len(anchors) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(anchors))
	for viewerID, chunk := range anchors {
		if err := validateViewerID(viewerID); err != nil {
			return err
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"viewer_id": viewerID}).
			SetUpdate(bson.M{"$set": viewerDoc{ViewerID: viewerID, ChunkX: chunk.X, ChunkZ: chunk.Z, UpdatedAt: now}}).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	if _, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("не удалось сохранить %d наблюдателей: %w", len(anchors), err)
	}
	return nil
}

// Close terminates connection.
func (m *MongoViewerRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
