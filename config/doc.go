// Package config loads layered application configuration: a yaml file as
// the base, a .env file on top, and NAME_* environment variables last.
// Struct-tag validation is available via Validate.
//
// File discovery and .env loading go through the FileSystem interface so
// tests can inject a fake.
package config
