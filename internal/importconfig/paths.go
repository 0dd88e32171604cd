package importconfig

import (
	"path/filepath"
	"strings"
)

// ResolvePaths makes relative source paths absolute against baseDir.
// Absolute paths and URLs such as s3://bucket/key are left unchanged.
func (c *Config) ResolvePaths(baseDir string) {
	for _, ref := range c.Entities.References {
		if ref != nil {
			resolveSpec(ref.Connector.Spec, baseDir)
		}
	}
	for _, ds := range c.Entities.Datasets {
		if ds != nil {
			resolveSpec(ds.Connector.Spec, baseDir)
		}
	}
}

func resolveSpec(spec ConnectorSpec, baseDir string) {
	switch s := spec.(type) {
	case *FileConnector:
		s.Path = resolvePath(s.Path, baseDir)
	case *DuckDBCSVConnector:
		s.Path = resolvePath(s.Path, baseDir)
	case *VectorConnector:
		s.Path = resolvePath(s.Path, baseDir)
	case *MultiFeatureConnector:
		for i := range s.Sources {
			s.Sources[i].Path = resolvePath(s.Sources[i].Path, baseDir)
		}
	}
}

func resolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(baseDir, path)
}
