// Package cmd implements the recomp subcommands.
//
// Every command that reads tree documents embeds [Input], which accepts any
// number of sources ("-" for stdin) and decodes them into a single validated
// tree. Output goes to the writer installed with [WithOutput], or standard
// output by default.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
