package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "ecare.db")

	// Resolver defaults favor precision over recall. A duplicate entity is
	// recoverable by the cleanup pass; a wrong merge is manual forever.
	v.SetDefault("resolver.fuzzy_cutoff", 90)
	v.SetDefault("resolver.short_name_cutoff", 95)
	v.SetDefault("resolver.short_name_length", 10)

	// Cleanup defaults
	v.SetDefault("cleanup.prominence_threshold", 50)
	v.SetDefault("cleanup.jaccard_minimum", 0.05)
	v.SetDefault("cleanup.jaccard_margin", 1.5)
	v.SetDefault("cleanup.doc_ref_cap", 200)
}
