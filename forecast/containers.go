/*
containers.go - Category tree and container-pool constraints

PURPOSE:
  A budget post under a child category is restricted to the container pool
  of its nearest ancestor that declares one. This is a recursive constraint
  propagated down a tree, not a graph with cycles: category paths are
  slash-separated and resolution is a plain walk toward the root, memoized
  per path.
*/
package forecast

import (
	"strings"

	"github.com/openbudget/forecast-engine/recurrence"
)

// CategoryTree holds per-category container pools and resolves the pool
// that constrains any given path. Not safe for concurrent mutation; build
// it fully, then share it read-only.
type CategoryTree struct {
	pools map[string][]recurrence.ContainerID
	memo  map[string][]recurrence.ContainerID
}

// NewCategoryTree returns an empty tree; every path is unrestricted until a
// pool is declared on it or an ancestor.
func NewCategoryTree() *CategoryTree {
	return &CategoryTree{
		pools: make(map[string][]recurrence.ContainerID),
		memo:  make(map[string][]recurrence.ContainerID),
	}
}

// SetPool declares the container pool for a category path.
func (t *CategoryTree) SetPool(path string, pool []recurrence.ContainerID) {
	t.pools[path] = append([]recurrence.ContainerID(nil), pool...)
	// Declared pools change what descendants resolve to.
	t.memo = make(map[string][]recurrence.ContainerID)
}

// AllowedContainers returns the pool constraining the given path: the path's
// own pool, or the nearest ancestor's. Nil means unrestricted.
func (t *CategoryTree) AllowedContainers(path string) []recurrence.ContainerID {
	if pool, ok := t.memo[path]; ok {
		return pool
	}

	pool := t.resolve(path)
	t.memo[path] = pool
	return pool
}

func (t *CategoryTree) resolve(path string) []recurrence.ContainerID {
	if pool, ok := t.pools[path]; ok {
		return pool
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return nil
	}
	return t.AllowedContainers(path[:i])
}

// CheckPost verifies that every container a post's patterns reference is in
// the pool its category allows. Transfer posts are exempt; their endpoints
// are explicit.
func (t *CategoryTree) CheckPost(post BudgetPost) error {
	if post.Direction == Transfer {
		return nil
	}
	allowed := t.AllowedContainers(post.Category)
	if allowed == nil {
		return nil
	}

	permitted := make(map[recurrence.ContainerID]struct{}, len(allowed))
	for _, c := range allowed {
		permitted[c] = struct{}{}
	}
	for _, p := range post.Patterns {
		for _, c := range p.Containers {
			if _, ok := permitted[c]; !ok {
				return &ValidationError{
					Field:  "container_ids",
					Detail: "container " + string(c) + " not in the pool allowed for category " + post.Category,
				}
			}
		}
	}
	return nil
}
