package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/natours/account"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is used when Config.Collection is empty.
const DefaultCollection = "users"

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store implements account.Store on a MongoDB collection.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// Connect dials MongoDB, pings it and ensures the email index.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongo: uri and database are required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique email index and the reset-token lookup
// index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *Store) FindByID(ctx context.Context, id string, includeHash bool) (account.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid, "active": true}, includeHash)
}

func (s *Store) FindByEmail(ctx context.Context, email string, includeHash bool) (account.Account, error) {
	return s.findOne(ctx, bson.M{"email": account.NormalizeEmail(email), "active": true}, includeHash)
}

func (s *Store) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (account.Account, error) {
	if hash == "" {
		return account.Account{}, account.ErrNotFound
	}
	return s.findOne(ctx, bson.M{
		"passwordResetToken":   hash,
		"passwordResetExpires": bson.M{"$gt": now.UTC()},
		"active":               true,
	}, false)
}

func (s *Store) findOne(ctx context.Context, filter bson.M, includeHash bool) (account.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("mongo find: %w", err)
	}
	return doc.toAccount(includeHash), nil
}

func (s *Store) Create(ctx context.Context, a account.Account) (account.Account, error) {
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}
	doc := fromAccount(a)
	doc.ID = bson.NewObjectID()
	if a.ID != "" {
		oid, err := bson.ObjectIDFromHex(a.ID)
		if err != nil {
			return account.Account{}, fmt.Errorf("%w: id is not an object id", account.ErrInvalid)
		}
		doc.ID = oid
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.Account{}, account.ErrDuplicateEmail
		}
		return account.Account{}, fmt.Errorf("mongo insert: %w", err)
	}
	return doc.toAccount(false), nil
}

// Update writes every field of u in a single findOneAndUpdate. When
// validation is requested the current record is read first and the merged
// result checked before the write.
func (s *Store) Update(ctx context.Context, id string, u account.Update, opts account.UpdateOptions) (account.Account, error) {
	if err := u.Check(); err != nil {
		return account.Account{}, err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return account.Account{}, account.ErrNotFound
	}
	filter := updateFilter(oid, u)

	if opts.Validate {
		cur, err := s.findOne(ctx, filter, true)
		if err != nil {
			return account.Account{}, err
		}
		if err := u.Apply(cur).Validate(); err != nil {
			return account.Account{}, err
		}
	}

	update := updateDocument(u)
	if len(update) == 0 {
		return s.findOne(ctx, filter, false)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc document
	err = s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return account.Account{}, account.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return account.Account{}, account.ErrDuplicateEmail
	case err != nil:
		return account.Account{}, fmt.Errorf("mongo update: %w", err)
	}
	return doc.toAccount(false), nil
}

func (s *Store) List(ctx context.Context, opts account.ListOptions) ([]account.Account, error) {
	filter := bson.M{"active": true}
	if opts.Role != "" {
		filter["role"] = string(opts.Role)
	}
	find := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	if opts.Offset > 0 {
		find.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list decode: %w", err)
	}
	out := make([]account.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAccount(false))
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return account.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return account.ErrNotFound
	}
	return nil
}

// DeleteAll empties the collection. The data import tool uses it.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo delete all: %w", err)
	}
	return res.DeletedCount, nil
}

var _ account.Store = (*Store)(nil)
