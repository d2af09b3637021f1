package ports

// StateStore persists snapshots of the shared state between processes.
type StateStore interface {
	// Load returns the last saved snapshot, or an empty one when nothing was saved yet.
	Load() (map[string]any, error)
	Save(snapshot map[string]any) error
}
