package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/daybook/server/internal/platform/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "journals"

type entryDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"userId"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	EntryDate time.Time          `bson:"entryDate"`
	Mood      *string            `bson:"mood"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func moodPtr(s *string) *Mood {
	if s == nil {
		return nil
	}
	m := Mood(*s)
	return &m
}

func (d entryDoc) entry() Entry {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return Entry{
		ID:        d.ID.Hex(),
		OwnerID:   d.UserID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		EntryDate: d.EntryDate,
		Mood:      moodPtr(d.Mood),
		Tags:      tags,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDoc(e Entry) (entryDoc, error) {
	id, ok := mongodb.ObjectID(e.ID)
	if !ok {
		return entryDoc{}, fmt.Errorf("invalid entry id %q", e.ID)
	}
	owner, ok := mongodb.ObjectID(e.OwnerID)
	if !ok {
		return entryDoc{}, fmt.Errorf("invalid owner id %q", e.OwnerID)
	}
	var mood *string
	if e.Mood != nil {
		s := string(*e.Mood)
		mood = &s
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return entryDoc{
		ID:        id,
		UserID:    owner,
		Title:     e.Title,
		Content:   e.Content,
		EntryDate: e.EntryDate,
		Mood:      mood,
		Tags:      tags,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "entryDate", Value: -1}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, e Entry) error {
	doc, err := toDoc(e)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func rangeFilter(owner primitive.ObjectID, start, end *time.Time) bson.M {
	q := bson.M{"userId": owner}
	if start == nil && end == nil {
		return q
	}
	span := bson.M{}
	if start != nil {
		span["$gte"] = *start
	}
	if end != nil {
		span["$lte"] = *end
	}
	q["entryDate"] = span
	return q
}

func findOptions(q Query) *options.FindOptions {
	q = q.normalized()
	dir := -1
	if q.ascending() {
		dir = 1
	}
	return options.Find().
		SetSort(bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetLimit(int64(q.Limit))
}

func (r *MongoRepository) Find(ctx context.Context, ownerID string, q Query) ([]Entry, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return []Entry{}, nil
	}
	cur, err := r.coll.Find(ctx, rangeFilter(owner, q.Start, q.End), findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("find journal entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode journal entries: %w", err)
	}
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entry())
	}
	return out, nil
}

var monthProjection = bson.M{"title": 1, "entryDate": 1, "mood": 1, "tags": 1}

func (r *MongoRepository) Month(ctx context.Context, ownerID string, start, end time.Time) ([]MonthItem, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return []MonthItem{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "entryDate", Value: -1}}).
		SetProjection(monthProjection)
	cur, err := r.coll.Find(ctx, rangeFilter(owner, &start, &end), opts)
	if err != nil {
		return nil, fmt.Errorf("find month entries: %w", err)
	}
	defer cur.Close(ctx)

	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode month entries: %w", err)
	}
	out := make([]MonthItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entry().monthItem())
	}
	return out, nil
}

func ownedFilter(ownerID, id string) (bson.M, bool) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, false
	}
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": owner}, true
}

func (r *MongoRepository) Get(ctx context.Context, ownerID, id string) (Entry, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	var doc entryDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if mongodb.IsNoDocuments(err) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("find journal entry: %w", err)
	}
	return doc.entry(), nil
}

func (r *MongoRepository) Save(ctx context.Context, e Entry) error {
	doc, err := toDoc(e)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID, "userId": doc.UserID}, doc)
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, ownerID, id string) error {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
