package models

// Config is a key/value row in the DB-backed config store. Values set by
// operators at runtime override hardcoded defaults but are themselves
// overridden by app-level configuration.
type Config struct {
	Key   string `gorm:"primaryKey"`
	Value string
}
