// Package config holds the ECARE pipeline configuration.
//
// Configuration is loaded from an optional ecare.toml (working directory or
// ~/.ecare/), with environment variables prefixed ECARE_ overriding file
// values. Every matching heuristic that is a policy rather than a proof is
// exposed here so it can be tuned without a rebuild.
package config

// Config represents the full ECARE configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

// DatabaseConfig configures the SQLite store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ResolverConfig configures the real-time name resolver
type ResolverConfig struct {
	// FuzzyCutoff is the minimum token-sort similarity (0-100) for an
	// approximate match to be accepted.
	FuzzyCutoff int `mapstructure:"fuzzy_cutoff"`

	// ShortNameCutoff replaces FuzzyCutoff when the normalized input is at
	// most ShortNameLength characters. Short names collide easily
	// ("John Perry" vs "John Kerry"), so the bar is higher.
	ShortNameCutoff int `mapstructure:"short_name_cutoff"`
	ShortNameLength int `mapstructure:"short_name_length"`
}

// CleanupConfig configures the post-ingestion merge and cleanup engine
type CleanupConfig struct {
	// ProminenceThreshold is the edge count at or below which a noise
	// entity is deleted outright. Above it the entity is too entangled to
	// remove safely and is flagged excluded_from_analysis instead.
	ProminenceThreshold int `mapstructure:"prominence_threshold"`

	// JaccardMinimum and JaccardMargin control surname-only
	// disambiguation: the best candidate's neighbor overlap must be at
	// least JaccardMinimum and at least JaccardMargin times the
	// runner-up's, otherwise no merge happens. "No decision" is a normal,
	// frequent outcome.
	JaccardMinimum float64 `mapstructure:"jaccard_minimum"`
	JaccardMargin  float64 `mapstructure:"jaccard_margin"`

	// DocRefCap bounds the source_documents list carried on an edge.
	DocRefCap int `mapstructure:"doc_ref_cap"`
}
