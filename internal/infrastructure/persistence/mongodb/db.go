package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// collection names
const (
	COLLECTION_NAME_ACCOUNTS = "users"
)

type DBConfig struct {
	URI             string
	Database        string
	Timeout         int // seconds, per call
	MaxPoolSize     uint64
	IdleConnTimeout int // seconds
}

type DBService struct {
	DBClient *mongo.Client
	dbName   string
	timeout  int
}

func NewDBService(configs DBConfig) (*DBService, error) {
	if configs.Timeout <= 0 {
		configs.Timeout = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(configs.URI)
	if configs.IdleConnTimeout > 0 {
		clientOpts.SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout) * time.Second)
	}
	if configs.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(configs.MaxPoolSize)
	}
	dbClient, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer pingCancel()
	if err := dbClient.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = dbClient.Disconnect(context.Background())
		return nil, err
	}

	return &DBService{
		DBClient: dbClient,
		dbName:   configs.Database,
		timeout:  configs.Timeout,
	}, nil
}

// getContext bounds a store call by the configured timeout without outliving parent.
func (dbService *DBService) getContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(dbService.timeout)*time.Second)
}

func (dbService *DBService) collectionAccounts() *mongo.Collection {
	return dbService.DBClient.Database(dbService.dbName).Collection(COLLECTION_NAME_ACCOUNTS)
}

func (dbService *DBService) Ping(ctx context.Context) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()
	return dbService.DBClient.Ping(ctx, readpref.Primary())
}

func (dbService *DBService) Close(ctx context.Context) error {
	return dbService.DBClient.Disconnect(ctx)
}
