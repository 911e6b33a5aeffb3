package ragcore

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string
	addrs    []string
	password string
	dsn      string

	apiKey         string
	baseURL        string
	embeddingModel string
	dimensions     int
	chatModel      string
	queryCache     bool

	blobRoot  string
	keyPrefix string

	threshold   *float64
	topK        int
	tokenBudget int
	workers     int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores documents and chunks in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores documents and chunks in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithPostgres stores documents and chunks in PostgreSQL with pgvector.
// The query embedding cache is unavailable with this driver.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = config.DriverPostgres
		c.dsn = dsn
	})
}

// WithOpenAI sets the API key used for both embeddings and chat completions.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
	})
}

// WithBaseURL points the provider client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithEmbeddingModel sets the embedding model and its vector dimension.
// Defaults: text-embedding-3-small, 1536.
func WithEmbeddingModel(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithChatModel sets the completion model. Default: gpt-4.
func WithChatModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatModel = model
	})
}

// WithQueryCache caches question embeddings in the key-value store.
func WithQueryCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.queryCache = true
	})
}

// WithBlobRoot sets the directory holding uploaded source files. Default: data/blobs.
func WithBlobRoot(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.blobRoot = dir
	})
}

// WithKeyPrefix namespaces every stored key. Default: "ragcore:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithRetrieval overrides the relevance threshold and the default number of
// chunks sent to the model. Defaults: 0.7 and 12.
func WithRetrieval(threshold float64, topK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = &threshold
		c.topK = topK
	})
}

// WithTokenBudget sets the chunk size in estimated tokens. Default: 900.
func WithTokenBudget(tokens int) Option {
	return optionFunc(func(c *clientConfig) {
		c.tokenBudget = tokens
	})
}

// WithIngestWorkers sets the number of concurrent ingestion workers. Default: 2.
func WithIngestWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for pipeline and SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig maps the options onto the service configuration.
func (c *clientConfig) toConfig() config.Config {
	var cfg config.Config
	cfg.Database.Driver = c.driver
	cfg.Database.Addrs = c.addrs
	cfg.Database.Password = c.password
	cfg.Database.DSN = c.dsn

	cfg.Embedding.APIKey = c.apiKey
	cfg.Embedding.BaseURL = c.baseURL
	cfg.Embedding.Model = c.embeddingModel
	cfg.Embedding.Dimensions = c.dimensions
	cfg.Embedding.Cache = c.queryCache
	cfg.LLM.Model = c.chatModel

	cfg.Storage.BlobRoot = c.blobRoot
	cfg.Storage.KeyPrefix = c.keyPrefix

	cfg.RAG.RelevanceThreshold = c.threshold
	cfg.RAG.TopK = c.topK
	cfg.RAG.TokenBudget = c.tokenBudget
	cfg.Ingest.Workers = c.workers

	cfg.ApplyDefaults()
	return cfg
}
