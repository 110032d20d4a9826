// Package config loads TaskMesh runtime configuration from the environment,
// optionally seeded from a .env file.
package config
