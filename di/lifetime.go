package di

// Lifetime determines how long a resolved instance is reused.
type Lifetime uint8

const (
	// Singleton creates one instance per container, shared by the root and
	// every scope opened from it.
	Singleton Lifetime = iota

	// Scoped creates one instance per open scope. Resolving a scoped service
	// directly from the root treats the root as an implicit scope.
	Scoped

	// Transient creates a new instance on every resolution. Transient
	// instances are still tracked for disposal by their owning scope.
	Transient
)

// String returns the lifetime name.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}
