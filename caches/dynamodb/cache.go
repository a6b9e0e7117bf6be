package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	sardedge "github.com/dgduncan/sard-edge"
	"github.com/dgduncan/sard-edge/caches"
)

// Config defines the configuration options for the DynamoDB cache implementation.
type Config struct {
	DeleteExpiredItems bool // Controls if the expired_at TTL property is put in the database to allow automatic deletion of expired items

	ItemExpiration time.Duration // How long an item stays in the table. Independent of the page expiration stored in the item.
	Table          string
}

// Cache implements the sardedge.Cache interface using Amazon DynamoDB as the storage backend.
type Cache struct {
	client *dynamodb.Client

	table         string
	expiration    time.Duration
	deleteExpired bool
	now           func() time.Time
}

type cacheItem struct {
	URL       string `json:"url" dynamodbav:"url"`
	Response  []byte `json:"response" dynamodbav:"response"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
	ExpiredAt int64  `json:"expired_at,omitempty" dynamodbav:"expired_at,omitempty"`
}

// Get retrieves a cache item from DynamoDB by its key. It returns the cached item
// if found and not expired, or an appropriate error otherwise.
func (c *Cache) Get(ctx context.Context, k string) (*sardedge.CacheItem, error) {
	key, err := attributevalue.Marshal(k)
	if err != nil {
		return nil, err
	}

	output, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"url": key,
		},
		ConsistentRead: aws.Bool(true),
		TableName:      aws.String(c.table),
	})
	if err != nil {
		return nil, err
	}

	if output.Item == nil {
		return nil, caches.ErrNoCacheItem
	}

	var item cacheItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, err
	}

	var ci sardedge.CacheItem
	if err := gobDecode(item.Response, &ci); err != nil {
		return nil, err
	}

	if ci.Expired(c.now()) {
		return &ci, caches.ErrCacheItemExpired
	}

	return &ci, nil
}

// Set stores a new cache item in DynamoDB with the provided key and value.
// It handles the serialization of the cache item and sets the appropriate timestamps.
func (c *Cache) Set(ctx context.Context, k string, v *sardedge.CacheItem) error {
	createdAt := c.now()

	encItem, err := gobEncode(v)
	if err != nil {
		return err
	}

	i := cacheItem{
		URL:       k,
		Response:  encItem,
		CreatedAt: createdAt.Unix(),
	}
	if c.deleteExpired {
		i.ExpiredAt = createdAt.Add(c.expiration).Unix()
	}

	av, err := attributevalue.MarshalMap(i)
	if err != nil {
		return err
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      av,
	})
	return err
}

// New creates a new DynamoDB cache instance with the provided configuration.
// It validates the configuration and sets default values where appropriate.
// Returns an error if the client is nil or if the configuration is invalid.
func New(_ context.Context, client *dynamodb.Client, config *Config) (*Cache, error) {
	if client == nil {
		return nil, caches.ValidationError{
			Reason: "nil client",
		}
	}

	if config == nil || config.Table == "" {
		return nil, caches.ValidationError{
			Reason: "missing table name",
		}
	}

	var itemExpiration time.Duration
	if config.ItemExpiration == 0 {
		itemExpiration = caches.DefaultExpiredDuration
	} else {
		itemExpiration = config.ItemExpiration
	}

	return &Cache{
		client: client,

		table:         config.Table,
		expiration:    itemExpiration,
		deleteExpired: config.DeleteExpiredItems,
		now:           time.Now,
	}, nil
}
