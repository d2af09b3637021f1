package middleware_test

import "github.com/mohae/deepcopy"

// memStore keeps the last saved snapshot in memory.
type memStore struct {
	saved map[string]any
}

func (s *memStore) Load() (map[string]any, error) {
	if s.saved == nil {
		return map[string]any{}, nil
	}
	return deepcopy.Copy(s.saved).(map[string]any), nil
}

func (s *memStore) Save(snapshot map[string]any) error {
	s.saved = deepcopy.Copy(snapshot).(map[string]any)
	return nil
}
