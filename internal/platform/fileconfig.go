package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileConfig is a ConfigStore persisted as a JSON object on disk, for
// standalone deployments without a host config service. Writes rewrite the
// whole file.
type FileConfig struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

func NewFileConfig(path string) (*FileConfig, error) {
	c := &FileConfig{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NewFileConfig: %w", err)
	}
	if err := json.Unmarshal(data, &c.values); err != nil {
		return nil, fmt.Errorf("NewFileConfig: %s: %w", path, err)
	}
	return c, nil
}

func (c *FileConfig) GetAppValue(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *FileConfig) SetAppValue(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return c.save()
}

func (c *FileConfig) DeleteAppValue(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return c.save()
}

func (c *FileConfig) save() error {
	data, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
