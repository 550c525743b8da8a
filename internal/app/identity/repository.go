package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/daybook/server/internal/platform/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Preferences struct {
	Theme           string `json:"theme"`
	DefaultCategory string `json:"defaultCategory"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, DefaultCategory: "other"}
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Preferences  Preferences
	CreatedAt    time.Time
}

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	CreateUser(ctx context.Context, user User) error
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, userID string) (User, error)
}

const collectionName = "users"

type prefsDoc struct {
	Theme           string `bson:"theme"`
	DefaultCategory string `bson:"defaultCategory"`
}

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Username    string             `bson:"username"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	Preferences prefsDoc           `bson:"preferences"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d userDoc) user() User {
	return User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Preferences:  Preferences(d.Preferences),
		CreatedAt:    d.CreatedAt,
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) CreateUser(ctx context.Context, user User) error {
	oid, ok := mongodb.ObjectID(user.ID)
	if !ok {
		return fmt.Errorf("invalid user id %q", user.ID)
	}
	doc := userDoc{
		ID:          oid,
		Username:    user.Username,
		Email:       user.Email,
		Password:    user.PasswordHash,
		Preferences: prefsDoc(user.Preferences),
		CreatedAt:   user.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if mongodb.IsNoDocuments(err) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.user(), nil
}

func (r *MongoRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindUserByID(ctx context.Context, userID string) (User, error) {
	oid, ok := mongodb.ObjectID(userID)
	if !ok {
		return User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]User{}, byEmail: map[string]string{}}
}

func (r *MemoryRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryRepository) CreateUser(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return ErrDuplicateEmail
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) FindUserByID(_ context.Context, userID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}
