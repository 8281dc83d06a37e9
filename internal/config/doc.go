// Package config loads, validates and saves the bot settings YAML.
//
// Required fields are the bot token and the two destination chat ids;
// everything else defaults to sensible values, including the civil clock
// offset, data file locations, sweep cadences and the closure vocabulary.
package config
