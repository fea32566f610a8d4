package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"realestate-summary/models"
	"realestate-summary/utils"
)

const (
	mongoCatalog   = "_tables"
	mongoRowField  = "_row"
	mongoBatchSize = 1000
)

// tableEntry records a table's column order, which documents do not keep.
type tableEntry struct {
	Name      string    `bson:"_id"`
	Columns   []string  `bson:"columns"`
	Rows      int       `bson:"rows"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one collection per table and one document per row.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and pings the primary, retrying on failure.
func NewMongoStore(ctx context.Context, uri, database string, maxRetries int, logger *utils.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("mongo ping", func() error { return client.Ping(ctx, readpref.Primary()) }); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// LoadTable reads every document of the named collection in row order.
func (ms *MongoStore) LoadTable(ctx context.Context, name string) (*models.Table, error) {
	var entry tableEntry
	err := ms.db.Collection(mongoCatalog).FindOne(ctx, bson.M{"_id": name}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongo: load %q: %w", name, ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: lookup %q: %w", name, err)
	}

	opts := options.Find().SetSort(bson.D{{Key: mongoRowField, Value: 1}})
	cur, err := ms.db.Collection(name).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: load %q: %w", name, err)
	}
	defer cur.Close(ctx)

	table := models.NewTable(entry.Columns...)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode %q: %w", name, err)
		}
		row := make([]models.Value, len(entry.Columns))
		for i, c := range entry.Columns {
			row[i] = models.FromAny(doc[c])
		}
		if err := table.AppendRow(row); err != nil {
			return nil, fmt.Errorf("mongo: load %q: %w", name, err)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: load %q: %w", name, err)
	}
	return table, nil
}

// SaveTable drops the collection, inserts all rows and records the column order.
func (ms *MongoStore) SaveTable(ctx context.Context, name string, table *models.Table) error {
	cols := table.Columns()
	coll := ms.db.Collection(name)
	if err := coll.Drop(ctx); err != nil {
		return fmt.Errorf("mongo: drop %q: %w", name, err)
	}

	docs := make([]interface{}, 0, mongoBatchSize)
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("mongo: insert into %q: %w", name, err)
		}
		docs = docs[:0]
		return nil
	}

	for i := 0; i < table.Len(); i++ {
		doc := make(bson.D, 0, len(cols)+1)
		doc = append(doc, bson.E{Key: mongoRowField, Value: i})
		for j, v := range table.Row(i) {
			doc = append(doc, bson.E{Key: cols[j], Value: v.Any()})
		}
		docs = append(docs, doc)
		if len(docs) == mongoBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	entry := tableEntry{Name: name, Columns: cols, Rows: table.Len(), UpdatedAt: time.Now().UTC()}
	_, err := ms.db.Collection(mongoCatalog).ReplaceOne(ctx, bson.M{"_id": name}, entry, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: catalog %q: %w", name, err)
	}
	return nil
}

func (ms *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

var _ TableStore = (*MongoStore)(nil)
