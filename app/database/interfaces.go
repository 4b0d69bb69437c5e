package database

// KVRepository stores opaque string values by key.
type KVRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}
