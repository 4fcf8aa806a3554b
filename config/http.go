package config

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// ReadTimeoutSeconds bounds reading a request, WriteTimeoutSeconds must
	// cover a synchronous solve.
	ReadTimeoutSeconds  int `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 120
	}
}
