package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SaveJSON marshals v and saves it under (namespace, key).
func SaveJSON(s Store, namespace, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", namespace, key, err)
	}
	return s.Save(namespace, key, data)
}

// LoadJSON loads (namespace, key) into v. It reports false with a nil error
// when nothing is stored.
func LoadJSON(s Store, namespace, key string, v any) (bool, error) {
	data, err := s.Load(namespace, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s/%s: %w", namespace, key, err)
	}
	return true, nil
}
