package report

import "time"

// Config holds the report header and footer texts.
type Config struct {
	Title     string `json:"title"`
	Generator string `json:"generator"`
	Version   string `json:"version"`
}

// SetDefaults applies the default texts.
func (c *Config) SetDefaults() {
	if c.Title == "" {
		c.Title = "Exam distribution by day and active correctors"
	}
	if c.Generator == "" {
		c.Generator = "PVIHK"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Meta returns the document metadata for a report created at t.
func (c Config) Meta(t time.Time) Meta {
	return Meta{Title: c.Title, Generator: c.Generator, Version: c.Version, CreatedAt: t}
}
