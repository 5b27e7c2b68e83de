package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartas/cartas-api/internal/core/domain"
)

const collectionLetters = "letters"

// LetterRepository implements ports.LetterRepository using MongoDB.
type LetterRepository struct {
	col *mongo.Collection
}

func NewLetterRepository(db *mongo.Database) *LetterRepository {
	return &LetterRepository{col: db.Collection(collectionLetters)}
}

type letterDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Subject   string             `bson:"subject"`
	Body      string             `bson:"body"`
	Signature string             `bson:"signature"`
	AuthorID  string             `bson:"author_id"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *letterDoc) toDomain() *domain.Letter {
	return &domain.Letter{
		ID:        d.ID.Hex(),
		Subject:   d.Subject,
		Body:      d.Body,
		Signature: d.Signature,
		AuthorID:  domain.Identity(d.AuthorID),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a new letter document.
func (r *LetterRepository) Create(ctx context.Context, l *domain.Letter) (*domain.Letter, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := letterDoc{
		ID:        primitive.NewObjectID(),
		Subject:   l.Subject,
		Body:      l.Body,
		Signature: l.Signature,
		AuthorID:  string(l.AuthorID),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert letter: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns all letters sorted by created_at descending.
func (r *LetterRepository) List(ctx context.Context) ([]*domain.Letter, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find letters: %w", err)
	}
	defer cur.Close(ctx)

	var docs []letterDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode letters: %w", err)
	}

	letters := make([]*domain.Letter, 0, len(docs))
	for i := range docs {
		letters = append(letters, docs[i].toDomain())
	}
	return letters, nil
}

// FindByID retrieves a letter. Ids that are not ObjectID hex strings cannot
// exist and are reported as not found.
func (r *LetterRepository) FindByID(ctx context.Context, id string) (*domain.Letter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLetterNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc letterDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLetterNotFound
		}
		return nil, fmt.Errorf("find letter: %w", err)
	}
	return doc.toDomain(), nil
}

// Update sets the mutable fields in a single atomic findOneAndUpdate. The
// filter pins author_id so the write never lands on a letter owned by
// someone else.
func (r *LetterRepository) Update(ctx context.Context, id string, author domain.Identity, ch domain.LetterChanges) (*domain.Letter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrLetterNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "author_id": string(author)}
	update := bson.M{"$set": bson.M{
		"subject":    ch.Subject,
		"body":       ch.Body,
		"signature":  ch.Signature,
		"updated_at": ch.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc letterDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLetterNotFound
		}
		return nil, fmt.Errorf("update letter: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes the letter if it is owned by author.
func (r *LetterRepository) Delete(ctx context.Context, id string, author domain.Identity) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrLetterNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "author_id": string(author)})
	if err != nil {
		return fmt.Errorf("delete letter: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLetterNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes used by List.
func (r *LetterRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
