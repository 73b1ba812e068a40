package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"postql/models"
)

type MongoStore struct {
	client  *mongo.Client
	users   *mongo.Collection
	posts   *mongo.Collection
	timeout time.Duration
	log     *zap.Logger
}

var _ Store = (*MongoStore)(nil)

// ConnectMongo dials uri, pings the server and makes sure the collection
// indexes exist.
func ConnectMongo(ctx context.Context, uri, dbName string, timeout time.Duration, log *zap.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongodb")
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:  client,
		users:   db.Collection("users"),
		posts:   db.Collection("posts"),
		timeout: timeout,
		log:     log,
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("Connected to MongoDB", zap.String("database", dbName))
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating users.username index")
	}
	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return errors.Wrap(err, "creating posts.userId index")
}

// Ping checks the connection for the health endpoint.
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnecting from mongodb")
	}
	s.log.Info("Disconnected from MongoDB")
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}

	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateUsername
	}
	return errors.Wrap(err, "inserting user")
}

func (s *MongoStore) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding user")
	}
	return &u, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.posts.InsertOne(ctx, p)
	return errors.Wrap(err, "inserting post")
}

func (s *MongoStore) Post(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	posts, err := s.populated(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return posts[0], nil
}

func (s *MongoStore) Posts(ctx context.Context) ([]*models.Post, error) {
	return s.populated(ctx, bson.D{})
}

func (s *MongoStore) UserPosts(ctx context.Context, userID primitive.ObjectID) ([]*models.Post, error) {
	return s.populated(ctx, bson.D{{Key: "userId", Value: userID}})
}

// populated runs match through a $lookup on users so each post carries its owner.
func (s *MongoStore) populated(ctx context.Context, match bson.D) ([]*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.users.Name()},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregating posts")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		models.Post `bson:",inline"`
		User        *models.User `bson:"user"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding posts")
	}

	posts := make([]*models.Post, len(rows))
	for i := range rows {
		p := rows[i].Post
		p.User = rows[i].User
		posts[i] = &p
	}
	return posts, nil
}

func (s *MongoStore) UpdatePostContent(ctx context.Context, id, ownerID primitive.ObjectID, content string) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().Unix()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Post
	err := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": id, "userId": ownerID}, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missingOrForeign(ctx, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "updating post")
	}
	return &p, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id, ownerID primitive.ObjectID) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var p models.Post
	err := s.posts.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missingOrForeign(ctx, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "deleting post")
	}
	return &p, nil
}

// missingOrForeign tells apart a filter miss on {_id, userId} caused by an
// unknown id from one caused by a different owner.
func (s *MongoStore) missingOrForeign(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.posts.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "counting posts")
	}
	if n > 0 {
		return ErrNotOwner
	}
	return ErrNotFound
}
