package cache

import "time"

// Cache stores values by string key.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Clear()
	Len() int
}

// Key builds a namespaced cache key, e.g. "canonica:v1:municipality:MOTERIA".
func Key(namespace, value string) string {
	return "canonica:v1:" + namespace + ":" + value
}
