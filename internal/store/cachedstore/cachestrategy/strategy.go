// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

// Strategy remembers a bounded set of keys, evicting according to its policy.
type Strategy interface {
	Contains(key string) bool
	Add(key string) (evicted bool)
	Len() int
}
