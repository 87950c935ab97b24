package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "protein-kb/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the UniProt and GenAge fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RawDir is the directory for fetched CSV outputs (e.g. "data/raw").
	RawDir string `json:"raw_dir" yaml:"raw_dir"`

	// RequestDelay is the courtesy delay between consecutive API calls (default 100ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// HarvestConfig holds settings for the corpus harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// CorpusDir is the directory where per-article JSON documents are written.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// PageSize is the Europe PMC search page size (default 100, max 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxHarvest caps the number of articles written per gene (default 1000).
	MaxHarvest int `json:"max_harvest" yaml:"max_harvest"`

	// OpenAccessOnly restricts the search to open-access articles (default true).
	OpenAccessOnly bool `json:"open_access_only" yaml:"open_access_only"`

	// HumanOnly restricts the search to Homo sapiens (default true).
	HumanOnly bool `json:"human_only" yaml:"human_only"`

	// SaveXML controls whether raw JATS XML is kept in each corpus document.
	SaveXML bool `json:"save_xml" yaml:"save_xml"`
}

// NetworkConfig holds settings for the reference-network expansion stage.
type NetworkConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxDepth is how many hops to follow beyond the seeds (depth 0 = seeds).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Relations selects which edges to follow: "reference", "citation", or both.
	Relations []string `json:"relations" yaml:"relations"`

	// RequestDelay is the courtesy delay between paginated API calls (default 50ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// ScoringWeights holds the relative weights of the composite relevance score.
// Weights are normalized before use, so only their ratios matter.
type ScoringWeights struct {
	// Year weights the recency component (default 0.4).
	Year float64 `json:"year" yaml:"year"`

	// Function weights the function-sentence component (default 0.35).
	Function float64 `json:"function" yaml:"function"`

	// Longevity weights the longevity-keyword component (default 0.25).
	Longevity float64 `json:"longevity" yaml:"longevity"`
}

// CorpusConfig holds settings for the corpus index stage.
type CorpusConfig struct {
	// CorpusDir is the directory holding harvested JSON documents.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// DBPath is the SQLite database file (default "data/corpus_index.sqlite").
	DBPath string `json:"db_path" yaml:"db_path"`

	// ChunkSize is the passage size in characters for retrieval chunks (default 1600).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the character overlap between consecutive chunks (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// MaxResults is the default maximum number of retrieval results (default 8).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// AIConfig holds shared settings for stages that call the Nebius API.
type AIConfig struct {
	// BaseURL is the OpenAI-compatible API root (default "https://api.studio.nebius.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the chat model identifier (e.g. "openai/gpt-oss-120b").
	Model string `json:"model" yaml:"model"`

	// EmbeddingModel is the embeddings model identifier (e.g. "BAAI/bge-en-icl").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// APIKey is the authentication key. Usually loaded from NEBIUS_API_KEY.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds settings for the knowledge extraction stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// KnowledgeDir is the base directory for extracted records (contains extracted/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// ContextChunks is the number of corpus passages retrieved per protein (default 8).
	ContextChunks int `json:"context_chunks" yaml:"context_chunks"`
}

// ArticleConfig holds settings for the article synthesis stage.
type ArticleConfig struct {
	AIConfig `yaml:",inline"`

	// KnowledgeDir is the base directory holding extracted records.
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// OutputDir is the directory for generated articles (e.g. "data/articles").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// TemplatePath optionally overrides the built-in article template.
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr"`

	// Harvest, Corpus, and Extraction configure the stages the API runs.
	Harvest    HarvestConfig    `json:"harvest" yaml:"harvest"`
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Harvest    HarvestConfig    `json:"harvest" yaml:"harvest"`
	Network    NetworkConfig    `json:"network" yaml:"network"`
	Weights    ScoringWeights   `json:"weights" yaml:"weights"`
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Article    ArticleConfig    `json:"article" yaml:"article"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
