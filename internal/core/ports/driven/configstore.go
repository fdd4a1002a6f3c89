package driven

// ConfigStore is a flat key/value view over settings, keyed by dotted paths
// such as "llm.provider". Typed getters return the zero value for a missing
// key or a value of the wrong type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set changes the working value only; nothing is durable until Save.
	Set(key string, value any) error
	Save() error
	// Load replaces the working values with the stored ones.
	Load() error

	// Path locates the backing store, for display.
	Path() string
}
