package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// CollectionName is the mflix comments collection.
const CollectionName = "comments"

// commentDoc is the stored shape. movie_id holds an ObjectID for mflix
// data and a plain string for ids that are not hex.
type commentDoc struct {
	ID      bson.ObjectID `bson:"_id"`
	Name    string        `bson:"name"`
	Email   string        `bson:"email"`
	MovieID any           `bson:"movie_id"`
	Text    string        `bson:"text"`
	Date    time.Time     `bson:"date"`
}

func toDoc(c Comment, oid bson.ObjectID) commentDoc {
	var movie any = c.MovieID
	if mid, err := bson.ObjectIDFromHex(c.MovieID); err == nil {
		movie = mid
	}
	return commentDoc{ID: oid, Name: c.Name, Email: c.Email, MovieID: movie, Text: c.Text, Date: c.Date}
}

func (d commentDoc) toComment() Comment {
	c := Comment{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, Text: d.Text, Date: d.Date.UTC()}
	switch v := d.MovieID.(type) {
	case bson.ObjectID:
		c.MovieID = v.Hex()
	case string:
		c.MovieID = v
	}
	return c
}

func byID(oid bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: oid}}
}

// ownedBy matches a comment only when both id and author email agree, so the
// ownership check and the write happen in one server-side operation.
func ownedBy(oid bson.ObjectID, email string) bson.D {
	return bson.D{{Key: "_id", Value: oid}, {Key: "email", Value: email}}
}

func setText(text string, now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "text", Value: text},
		{Key: "date", Value: now},
	}}}
}

func criticsPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$email"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// MongoCommentStore persists comments in a MongoDB collection.
type MongoCommentStore struct {
	comments *mongo.Collection
	// critics is the same collection read with majority read concern, so the
	// report only reflects majority-committed writes.
	critics *mongo.Collection
	opts    Options
}

// NewMongoCommentStore creates a store over db's comments collection.
func NewMongoCommentStore(db *mongo.Database, opts Options) *MongoCommentStore {
	return &MongoCommentStore{
		comments: db.Collection(CollectionName),
		critics:  db.Collection(CollectionName, options.Collection().SetReadConcern(readconcern.Majority())),
		opts:     opts,
	}
}

func (s *MongoCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Comment{}, ErrNotFound
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	var d commentDoc
	if err := s.comments.FindOne(ctx, byID(oid)).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("find comment %s: %w", id, mongoErr(err))
	}
	return d.toComment(), nil
}

func (s *MongoCommentStore) Add(ctx context.Context, c Comment) (Comment, error) {
	if c.ID == "" {
		return Comment{}, missingID()
	}
	oid, err := bson.ObjectIDFromHex(c.ID)
	if err != nil {
		return Comment{}, &ValidationError{Field: "id", Reason: "must be a 24 character hex ObjectID"}
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	s.opts.logger().Debug("insert comment", zap.String("comment_id", c.ID), zap.String("movie_id", c.MovieID))
	if _, err := s.comments.InsertOne(ctx, toDoc(c, oid)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.opts.logger().Warn("duplicate comment id", zap.String("comment_id", c.ID))
			return Comment{}, &WriteError{Op: "insert", Err: ErrDuplicateKey}
		}
		s.opts.logger().Error("insert comment failed", zap.String("comment_id", c.ID), zap.Error(err))
		return Comment{}, &WriteError{Op: "insert", Err: mongoErr(err)}
	}
	return c, nil
}

func (s *MongoCommentStore) UpdateText(ctx context.Context, id, text, email string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	res, err := s.comments.UpdateOne(ctx, ownedBy(oid, email), setText(text, s.opts.now()))
	if err != nil {
		s.opts.logger().Error("update comment failed", zap.String("comment_id", id), zap.Error(err))
		return false, &WriteError{Op: "update", Err: mongoErr(err)}
	}
	if res.MatchedCount == 0 {
		s.opts.logger().Debug("update matched nothing", zap.String("comment_id", id))
		return false, nil
	}
	return res.Acknowledged, nil
}

func (s *MongoCommentStore) Delete(ctx context.Context, id, email string) (bool, error) {
	if id == "" {
		return false, missingID()
	}
	if email == "" {
		return false, nil
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	res, err := s.comments.DeleteOne(ctx, ownedBy(oid, email))
	if err != nil {
		s.opts.logger().Error("delete comment failed", zap.String("comment_id", id), zap.Error(err))
		return false, &WriteError{Op: "delete", Err: mongoErr(err)}
	}
	return res.DeletedCount == 1, nil
}

func (s *MongoCommentStore) MostActiveCommenters(ctx context.Context) ([]Critic, error) {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()

	cur, err := s.critics.Aggregate(ctx, criticsPipeline(CriticsLimit))
	if err != nil {
		return nil, fmt.Errorf("aggregate critics: %w", mongoErr(err))
	}
	critics := make([]Critic, 0, CriticsLimit)
	if err := cur.All(ctx, &critics); err != nil {
		return nil, fmt.Errorf("decode critics: %w", mongoErr(err))
	}
	return critics, nil
}

func (s *MongoCommentStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opts.withDeadline(ctx)
	defer cancel()
	return mongoErr(s.comments.Database().Client().Ping(ctx, readpref.Primary()))
}

// mongoErr folds driver timeouts into ErrDeadlineExceeded.
func mongoErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsTimeout(err) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
	}
	return deadline("mongo", err)
}
