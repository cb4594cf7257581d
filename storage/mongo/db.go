package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/chuolink/shule/core"
)

// collection names
const (
	staffCollection    = "staff"
	studentsCollection = "students"
	classesCollection  = "classes"
)

// Open connects to the configured MongoDB deployment and returns the
// application database handle along with a disconnect function.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(ctx, conf.Database.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, errors.Wrap(err, "pinging mongodb")
	}
	return client.Database(conf.Database.Name), client.Disconnect, nil
}

// mongoReturnUpdated makes FindOneAndUpdate return the post-update document.
func mongoReturnUpdated() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe
// to call on every startup; existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)

	if _, err := db.Collection(staffCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: sparseUnique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: sparseUnique},
	}); err != nil {
		return errors.Wrap(err, "creating staff indexes")
	}

	if _, err := db.Collection(studentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "currentLevel", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "levelHistory.achievedOn", Value: 1}}},
	}); err != nil {
		return errors.Wrap(err, "creating student indexes")
	}
	return nil
}
