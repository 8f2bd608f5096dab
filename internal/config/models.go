package config

// Config holds the configuration of the application.
// Use LoadConfig to create a new instance.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Chunker   ChunkerConfig   `mapstructure:"chunker" yaml:"chunker"`
	Memory    MemoryConfig    `mapstructure:"memory" yaml:"memory"`
	Retriever RetrieverConfig `mapstructure:"retriever" yaml:"retriever"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant" yaml:"qdrant"`
	Model     ModelConfig     `mapstructure:"model" yaml:"model"`
	Parser    ParserConfig    `mapstructure:"parser" yaml:"parser"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// CacheConfig locates private_files/ and private_embeddings/.
type CacheConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

type ChunkerConfig struct {
	Separator string `mapstructure:"separator" yaml:"separator"`
	Size      int    `mapstructure:"size" yaml:"size"`
	Overlap   int    `mapstructure:"overlap" yaml:"overlap"`
}

type MemoryConfig struct {
	Window int `mapstructure:"window" yaml:"window"`
}

type RetrieverConfig struct {
	TopK int `mapstructure:"top_k" yaml:"top_k"`
	// Backend is "memory" or "qdrant".
	Backend string `mapstructure:"backend" yaml:"backend"`
}

type QdrantConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type ModelConfig struct {
	// Backend is "ollama" or "openai".
	Backend        string  `mapstructure:"backend" yaml:"backend"`
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	ChatModel      string  `mapstructure:"chat_model" yaml:"chat_model"`
	EmbeddingModel string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	// APIKey is loaded from ENV not config file.
	APIKey string `mapstructure:"api_key" yaml:"-"`
}

type ParserConfig struct {
	PartitionURL string `mapstructure:"partition_url" yaml:"partition_url"`
	// LocalDocx extracts .docx text in-process instead of via the partition service.
	LocalDocx bool `mapstructure:"local_docx" yaml:"local_docx"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type WatchConfig struct {
	Dir   string `mapstructure:"dir" yaml:"dir"`
	Quiet string `mapstructure:"quiet" yaml:"quiet"`
}
