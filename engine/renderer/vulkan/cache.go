package vulkan

import "fmt"

// CacheStats reports how a memoizing cache has been used since creation.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

func (s CacheStats) String() string {
	return fmt.Sprintf("entries=%d hits=%d misses=%d", s.Entries, s.Hits, s.Misses)
}
