package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Paths.DownloadsDir == "" {
		cfg.Paths.DownloadsDir = "data/downloads"
	}
	if cfg.Paths.CleanDir == "" {
		cfg.Paths.CleanDir = "data/cleaned"
	}
	if cfg.Paths.IndicesDir == "" {
		cfg.Paths.IndicesDir = "data/indices"
	}
	if cfg.Paths.AnnotationsDir == "" {
		cfg.Paths.AnnotationsDir = "data/annotations"
	}
	if cfg.Paths.RowStorePath == "" {
		cfg.Paths.RowStorePath = "data/indices/rows.db"
	}
	if cfg.Paths.ModelPath == "" {
		cfg.Paths.ModelPath = "data/model/heads.json"
	}
	if cfg.Paths.SiteDir == "" {
		cfg.Paths.SiteDir = "site"
	}
	if len(cfg.Sections) == 0 {
		cfg.Sections = []SectionConfig{
			{Label: "new-dataset", Title: "New Datasets", Threshold: 0.6},
			{Label: "new-model", Title: "New Models", Threshold: 0.6},
			{Label: "data-quality", Title: "Data Quality", Threshold: 0.6},
			{Label: "education", Title: "Educational Content", Threshold: 0.6},
		}
	}
	if cfg.Site.Quota == 0 {
		cfg.Site.Quota = 50
	}
	if cfg.Site.MaxCandidates == 0 {
		cfg.Site.MaxCandidates = 1000
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "data/model/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.TokenizerPath == "" {
		cfg.Embedding.TokenizerPath = "data/model/tokenizer.json"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Ingest.MaxResults == 0 {
		cfg.Ingest.MaxResults = 200
	}
	if cfg.Ingest.MaxAgeDays == 0 {
		cfg.Ingest.MaxAgeDays = 2.5
	}
	if cfg.Ingest.CategoryPrefix == "" {
		cfg.Ingest.CategoryPrefix = "cs"
	}
}
