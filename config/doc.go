// Package config loads YAML, .env and environment configuration into
// mapstructure-tagged structs with viper and godotenv.
package config
