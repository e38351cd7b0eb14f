package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// mongo document IDs; one tree and one assignment set per database.
const (
	treeDocID        = "tree"
	assignmentsDocID = "palette"
)

// Mongo is a MongoDB-backed store for shared deployments.
// The whole tree is stored as one document, so Save stays atomic per call.
type Mongo struct {
	client *mongo.Client
	trees  *mongo.Collection
	meta   *mongo.Collection
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	URI      string // e.g. "mongodb://localhost:27017"
	Database string // defaults to "heirloom"
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Database == "" {
		cfg.Database = "heirloom"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	db := client.Database(cfg.Database)
	return &Mongo{
		client: client,
		trees:  db.Collection("trees"),
		meta:   db.Collection("metadata"),
	}, nil
}

type treeDoc struct {
	ID     string        `bson:"_id"`
	People []tree.Record `bson:"people"`
}

// assignmentsDoc keys generations as strings; BSON maps require string keys.
type assignmentsDoc struct {
	ID          string            `bson:"_id"`
	Assignments map[string]string `bson:"assignments"`
}

// Name identifies the backend.
func (m *Mongo) Name() string { return "mongo" }

// Load reads the stored tree document.
func (m *Mongo) Load(ctx context.Context) (tree.Snapshot, error) {
	var doc treeDoc
	err := m.trees.FindOne(ctx, bson.M{"_id": treeDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return tree.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return tree.Snapshot{}, fmt.Errorf("find tree: %w", err)
	}
	return tree.Snapshot{People: doc.People}, nil
}

// Save upserts the tree document.
func (m *Mongo) Save(ctx context.Context, snap tree.Snapshot) error {
	_, err := m.trees.ReplaceOne(ctx,
		bson.M{"_id": treeDocID},
		treeDoc{ID: treeDocID, People: snap.People},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace tree: %w", err)
	}
	return nil
}

// LoadAssignments reads the palette assignments document.
func (m *Mongo) LoadAssignments(ctx context.Context) (map[int]string, error) {
	var doc assignmentsDoc
	err := m.meta.FindOne(ctx, bson.M{"_id": assignmentsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[int]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find assignments: %w", err)
	}
	assignments := make(map[int]string, len(doc.Assignments))
	for key, name := range doc.Assignments {
		gen, err := strconv.Atoi(key)
		if err != nil {
			continue // skip malformed keys written by older clients
		}
		assignments[gen] = name
	}
	return assignments, nil
}

// StoreAssignments upserts the palette assignments document.
func (m *Mongo) StoreAssignments(ctx context.Context, assignments map[int]string) error {
	doc := assignmentsDoc{ID: assignmentsDocID, Assignments: make(map[string]string, len(assignments))}
	for gen, name := range assignments {
		doc.Assignments[strconv.Itoa(gen)] = name
	}
	_, err := m.meta.ReplaceOne(ctx,
		bson.M{"_id": assignmentsDocID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace assignments: %w", err)
	}
	return nil
}

// Watch is not supported: change streams require a replica set, which the
// typical single-node deployment does not have.
func (m *Mongo) Watch(ctx context.Context) (<-chan struct{}, error) {
	return nil, ErrWatchUnsupported
}

// Close disconnects from MongoDB.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// Ensure Mongo implements Store.
var _ Store = (*Mongo)(nil)
