package domain

// ConnectorType describes a supported connector.
type ConnectorType struct {
	// ID is the value of the "type" key in a connector block (e.g., "file", "derived").
	ID string
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the connector.
	Description string
	// ReferenceOnly is true for connectors that datasets may not use.
	ReferenceOnly bool
	// RequiresAuth is true when the connector may need credentials.
	RequiresAuth bool
	// ConfigKeys lists the keys accepted inside the connector block.
	ConfigKeys []ConfigKey
}

// ConfigKey describes a configuration field for a connector.
type ConfigKey struct {
	// Key is the configuration key name.
	Key string
	// Description explains what this field is for.
	Description string
	// Default is the value used when the key is omitted.
	Default string
	// Required indicates whether this field must be provided.
	Required bool
}

// RequiredKeys returns the keys that must be provided.
func (c *ConnectorType) RequiredKeys() []string {
	var keys []string
	for _, k := range c.ConfigKeys {
		if k.Required {
			keys = append(keys, k.Key)
		}
	}
	return keys
}
