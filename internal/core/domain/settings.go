package domain

// StoreDriver identifies the relational engine backing the store.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite is an embedded database file in the data directory.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres is a PostgreSQL server reached through a DSN.
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the store driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverSQLite, StoreDriverPostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// DefaultChunkSize is the number of rows inserted per statement batch.
const DefaultChunkSize = 1000

// Settings is the resolved application configuration.
type Settings struct {
	Store         StoreSettings
	ObjectStorage ObjectStorageSettings

	// ImportConfigPath is the default import configuration file.
	ImportConfigPath string

	// ChunkSize is the default insert batch size for datasets.
	ChunkSize int

	// LogFormat is "text" or "json".
	LogFormat string
}

// StoreSettings configures the relational store.
type StoreSettings struct {
	Driver StoreDriver

	// DataDir holds the SQLite database file.
	DataDir string

	// DSN is the PostgreSQL connection string.
	DSN string

	// ReadOnly opens the store without write access.
	ReadOnly bool
}

// ObjectStorageSettings configures access to s3:// source paths.
type ObjectStorageSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Configured reports whether an object storage endpoint is set.
func (o ObjectStorageSettings) Configured() bool {
	return o.Endpoint != ""
}

// DefaultSettings returns settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Store: StoreSettings{
			Driver: StoreDriverSQLite,
		},
		ObjectStorage: ObjectStorageSettings{
			UseSSL: true,
		},
		ImportConfigPath: "import.yml",
		ChunkSize:        DefaultChunkSize,
		LogFormat:        "text",
	}
}
