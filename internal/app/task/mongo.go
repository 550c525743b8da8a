package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daybook/server/internal/platform/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "todos"

type taskDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	UserID          primitive.ObjectID `bson:"userId"`
	Text            string             `bson:"text"`
	Completed       bool               `bson:"completed"`
	Priority        string             `bson:"priority"`
	Category        string             `bson:"category"`
	DueDate         *time.Time         `bson:"dueDate"`
	IsCarriedOver   bool               `bson:"isCarriedOver"`
	CarriedOverFrom *time.Time         `bson:"carriedOverFrom"`
	Order           int                `bson:"order"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d taskDoc) task() Task {
	return Task{
		ID:              d.ID.Hex(),
		OwnerID:         d.UserID.Hex(),
		Text:            d.Text,
		Completed:       d.Completed,
		Priority:        Priority(d.Priority),
		Category:        Category(d.Category),
		DueDate:         d.DueDate,
		IsCarriedOver:   d.IsCarriedOver,
		CarriedOverFrom: d.CarriedOverFrom,
		Order:           d.Order,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toDoc(t Task) (taskDoc, error) {
	id, ok := mongodb.ObjectID(t.ID)
	if !ok {
		return taskDoc{}, fmt.Errorf("invalid task id %q", t.ID)
	}
	owner, ok := mongodb.ObjectID(t.OwnerID)
	if !ok {
		return taskDoc{}, fmt.Errorf("invalid owner id %q", t.OwnerID)
	}
	return taskDoc{
		ID:              id,
		UserID:          owner,
		Text:            t.Text,
		Completed:       t.Completed,
		Priority:        string(t.Priority),
		Category:        string(t.Category),
		DueDate:         t.DueDate,
		IsCarriedOver:   t.IsCarriedOver,
		CarriedOverFrom: t.CarriedOverFrom,
		Order:           t.Order,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}, nil
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "completed", Value: 1}, {Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "order", Value: 1}}},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, t Task) error {
	doc, err := toDoc(t)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// listFilter builds the owner-scoped query for List.
func listFilter(owner primitive.ObjectID, f Filter) bson.M {
	q := bson.M{"userId": owner}
	if c, ok := f.category(); ok {
		q["category"] = string(c)
	}
	if p, ok := f.priority(); ok {
		q["priority"] = string(p)
	}
	return q
}

var displaySort = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

func (r *MongoRepository) List(ctx context.Context, ownerID string, f Filter) ([]Task, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return []Task{}, nil
	}
	return r.find(ctx, listFilter(owner, f), options.Find().SetSort(displaySort))
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Task, error) {
	oid, ok := mongodb.ObjectID(id)
	if !ok {
		return Task{}, ErrNotFound
	}
	var doc taskDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if mongodb.IsNoDocuments(err) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("find task: %w", err)
	}
	return doc.task(), nil
}

// patchSet renders a Patch as a $set document. updatedAt is always set.
func patchSet(p Patch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Text != nil {
		set["text"] = *p.Text
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.DueDate.Set {
		set["dueDate"] = p.DueDate.Value
	}
	if p.IsCarriedOver != nil {
		set["isCarriedOver"] = *p.IsCarriedOver
	}
	if p.CarriedOverFrom.Set {
		set["carriedOverFrom"] = p.CarriedOverFrom.Value
	}
	if p.Order != nil {
		set["order"] = *p.Order
	}
	return set
}

func (r *MongoRepository) ownedFilter(ownerID, id string) (bson.M, bool) {
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

func (r *MongoRepository) Update(ctx context.Context, ownerID, id string, p Patch, now time.Time) (Task, error) {
	filter, ok := r.ownedFilter(ownerID, id)
	if !ok {
		return Task{}, ErrNotFound
	}
	var doc taskDoc
	err := r.coll.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": patchSet(p, now)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if mongodb.IsNoDocuments(err) {
			return Task{}, ErrNotFound
		}
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return doc.task(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, ownerID, id string) error {
	filter, ok := r.ownedFilter(ownerID, id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// overdueFilter mirrors IsOverdue.
func overdueFilter(owner primitive.ObjectID, before time.Time) bson.M {
	return bson.M{
		"userId":        owner,
		"completed":     false,
		"dueDate":       bson.M{"$lt": before},
		"isCarriedOver": false,
	}
}

func (r *MongoRepository) Overdue(ctx context.Context, ownerID string, before time.Time) ([]Task, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return []Task{}, nil
	}
	return r.find(ctx, overdueFilter(owner, before), nil)
}

func (r *MongoRepository) Save(ctx context.Context, t Task) error {
	doc, err := toDoc(t)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID, "userId": doc.UserID}, doc)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// reorderModels builds one UpdateOne per valid id, with the owner in the
// filter. Ids that are not ObjectIDs cannot match anything and are dropped.
func reorderModels(owner primitive.ObjectID, updates []OrderUpdate, now time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		oid, ok := mongodb.ObjectID(u.ID)
		if !ok {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid, "userId": owner}).
			SetUpdate(bson.M{"$set": bson.M{"order": u.Order, "updatedAt": now}}))
	}
	return models
}

func (r *MongoRepository) Reorder(ctx context.Context, ownerID string, updates []OrderUpdate, now time.Time) (int, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return 0, nil
	}
	models := reorderModels(owner, updates, now)
	if len(models) == 0 {
		return 0, nil
	}
	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && res != nil {
			return int(res.MatchedCount), fmt.Errorf("reorder tasks: %w", err)
		}
		return 0, fmt.Errorf("reorder tasks: %w", err)
	}
	return int(res.MatchedCount), nil
}

func (r *MongoRepository) CreatedSince(ctx context.Context, ownerID string, since time.Time) ([]Task, error) {
	owner, ok := mongodb.ObjectID(ownerID)
	if !ok {
		return []Task{}, nil
	}
	return r.find(ctx, bson.M{"userId": owner, "createdAt": bson.M{"$gte": since}}, nil)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Task, error) {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = r.coll.Find(ctx, filter, opts)
	} else {
		cur, err = r.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.task())
	}
	return out, nil
}
