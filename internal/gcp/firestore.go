package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/routinesharing/internal/models"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// RoutineStore is the Firestore implementation of routines.Store. One
// Firestore document holds one day/time slot of an upload.
type RoutineStore struct {
	client     *firestore.Client
	collection string
}

func NewRoutineStore(client *firestore.Client, collection string) *RoutineStore {
	if collection == "" {
		collection = "routines"
	}
	return &RoutineStore{client: client, collection: collection}
}

func (s *RoutineStore) List(ctx context.Context, opts routines.ListOptions) ([]models.RoutineDocument, error) {
	q := s.client.Collection(s.collection).Query
	if opts.Day != "" {
		q = q.Where("dayOfWeek", "==", string(opts.Day))
	}
	if opts.Time != "" {
		q = q.Where("timeType", "==", string(opts.Time))
	}
	if opts.Sort == routines.SortPopular {
		q = q.OrderBy("likes", firestore.Desc)
	} else {
		q = q.OrderBy("createdAt", firestore.Desc)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var docs []models.RoutineDocument
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classify("list", err)
		}
		var doc models.RoutineDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode routine document %s: %w", snap.Ref.ID, err)
		}
		doc.ID = snap.Ref.ID
		docs = append(docs, doc)
	}
	return docs, nil
}

// Insert stores the document; createdAt is stamped by the server.
func (s *RoutineStore) Insert(ctx context.Context, doc models.RoutineDocument) (string, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, doc)
	if err != nil {
		return "", classify("insert", err)
	}
	return ref.ID, nil
}

// IncrementLikes uses a server-side increment, so concurrent likers never
// overwrite each other.
func (s *RoutineStore) IncrementLikes(ctx context.Context, id string) error {
	updates := []firestore.Update{
		{Path: "likes", Value: firestore.Increment(1)},
	}
	if _, err := s.client.Collection(s.collection).Doc(id).Update(ctx, updates); err != nil {
		return classify("like", err)
	}
	return nil
}

func (s *RoutineStore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Collection(s.collection).Doc(id).Delete(ctx); err != nil {
		return classify("delete", err)
	}
	return nil
}
