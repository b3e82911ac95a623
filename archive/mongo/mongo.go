// Package mongo provides an archive.Sink backed by MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zacbakerr/werewolf/core"
)

// Options configure the MongoDB sink.
type Options struct {
	Database   string
	Collection string
	// Timeout bounds connect, ping and disconnect.
	Timeout time.Duration
}

// Store writes history events to one collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	opts       Options
}

// Connect dials uri, verifies the connection and ensures indexes.
func Connect(ctx context.Context, uri string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		Database:   "werewolf",
		Collection: "game_history",
		Timeout:    10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := NewFromClient(client, optFns...)
	if err := s.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *mongo.Client, optFns ...func(o *Options)) *Store {
	opts := Options{
		Database:   "werewolf",
		Collection: "game_history",
		Timeout:    10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		opts:       opts,
	}
}

// EnsureIndexes creates the (agent, seq) index used by Events.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "agent", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetName("agent_seq"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// Append inserts one event.
func (s *Store) Append(ctx context.Context, ev core.GameHistoryEvent) error {
	if _, err := s.collection.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo insert event %d: %w", ev.Seq, err)
	}
	return nil
}

// Events returns the stored events for agent ordered by sequence.
func (s *Store) Events(ctx context.Context, agent string) ([]core.GameHistoryEvent, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"agent": agent}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	var events []core.GameHistoryEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return events, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
