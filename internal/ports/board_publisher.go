package ports

// Receives an encoded board each time a board session reloads.
// Implementations must not block the caller.
type BoardPublisher interface {
	Publish(key string, payload []byte)
}
