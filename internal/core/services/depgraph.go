package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// DependencyError names the derived reference a dependency failure is
// attributed to.
type DependencyError struct {
	Entity string
	Err    error
}

// Error implements the error interface.
func (e *DependencyError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *DependencyError) Unwrap() error {
	return e.Err
}

// DerivedOrder returns the derived references of cfg in an order where every
// source is built before the references derived from it. A source must be a
// dataset or another derived reference. Ties are broken by name.
func DerivedOrder(cfg *importconfig.Config) ([]string, error) {
	derived := cfg.DerivedReferences()
	isDerived := make(map[string]bool, len(derived))
	for _, name := range derived {
		isDerived[name] = true
	}

	indegree := make(map[string]int, len(derived))
	dependents := make(map[string][]string)
	for _, name := range derived {
		source := cfg.Entities.References[name].Connector.Derived().Source
		switch {
		case source == name:
			return nil, &DependencyError{
				Entity: name,
				Err:    fmt.Errorf("%w: %s derives from itself", domain.ErrCircularDependency, name),
			}
		case isDerived[source]:
			indegree[name]++
			dependents[source] = append(dependents[source], name)
		case cfg.Entities.Datasets[source] != nil:
			// Datasets are imported in an earlier phase.
		default:
			return nil, &DependencyError{
				Entity: name,
				Err: fmt.Errorf("%w: %s derives from %q, which is not a dataset or derived reference",
					domain.ErrSourceNotFound, name, source),
			}
		}
	}

	var ready []string
	for _, name := range derived {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(derived))
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) < len(derived) {
		var cycle []string
		for _, name := range derived {
			if indegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, &DependencyError{
			Entity: cycle[0],
			Err:    fmt.Errorf("%w between %s", domain.ErrCircularDependency, strings.Join(cycle, ", ")),
		}
	}
	return order, nil
}
