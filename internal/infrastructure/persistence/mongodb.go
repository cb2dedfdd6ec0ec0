package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions describes how to reach the reservation database
type MongoOptions struct {
	URI        string
	Username   string
	Password   string
	AuthSource string
	AppName    string
}

// NewMongoClient creates a new MongoDB client and verifies the connection
func NewMongoClient(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(opts.URI)

	if opts.Username != "" && opts.Password != "" {
		clientOptions.SetAuth(options.Credential{
			AuthSource: opts.AuthSource,
			Username:   opts.Username,
			Password:   opts.Password,
		})
	}
	if opts.AppName != "" {
		clientOptions.SetAppName(opts.AppName)
	}

	// Set connection timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to check connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// GetDatabase gets a database from the client
func GetDatabase(client *mongo.Client, name string) *mongo.Database {
	return client.Database(name)
}
