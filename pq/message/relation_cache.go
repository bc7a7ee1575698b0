package message

import (
	"sync"

	"github.com/grove/pgoutput-stream/pq/message/format"
)

// RelationCache holds the last Relation message seen for each relation id.
// Entries are replaced whole, never merged, and never evicted.
type RelationCache struct {
	relations map[uint32]*format.Relation
	mu        sync.RWMutex
}

func NewRelationCache() *RelationCache {
	return &RelationCache{relations: make(map[uint32]*format.Relation)}
}

func (c *RelationCache) Put(rel *format.Relation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.relations[rel.OID] = rel
}

func (c *RelationCache) Get(relationID uint32) (*format.Relation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rel, ok := c.relations[relationID]
	if !ok {
		return nil, format.NewUnknownRelationError(relationID)
	}

	return rel, nil
}

func (c *RelationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.relations)
}
