package qdrantdb

import (
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

const DefaultCollectionName = "news_docs"

type Config struct {
	Host       string
	Port       int // gRPC port
	APIKey     string
	UseTLS     bool
	Collection string
}

type NewsClient struct {
	Client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*NewsClient, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, err
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollectionName
	}
	return &NewsClient{Client: client, collection: collection, logger: logger}, nil
}

func (c *NewsClient) CollectionName() string {
	return c.collection
}

func (c *NewsClient) Close() error {
	return c.Client.Close()
}
