// Package store persists page records. Every write is an insert; records are
// never updated or deduplicated.
package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// FirestoreStore writes one document per page record into a collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Insert adds the record under an auto-generated document ID.
func (s *FirestoreStore) Insert(ctx context.Context, record models.PageRecord) error {
	if _, _, err := s.client.Collection(s.collection).Add(ctx, record); err != nil {
		return fmt.Errorf("failed to add page record to %s: %w", s.collection, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
