package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CacheManager is a file-backed cache for fetched data, keyed by source,
// method, and request parameters.
type CacheManager struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

func NewCacheManager(dir string, ttl time.Duration, enabled bool) *CacheManager {
	return &CacheManager{dir: dir, ttl: ttl, enabled: enabled}
}

func (cm *CacheManager) key(source, method string, params any) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s_%s_%x.json", source, method, md5.Sum(data))
}

// Get loads a cached value into result, returning false on miss or expiry.
func (cm *CacheManager) Get(source, method string, params, result any) bool {
	if !cm.enabled {
		return false
	}
	path := filepath.Join(cm.dir, cm.key(source, method, params))

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > cm.ttl {
		_ = os.Remove(path)
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

// Set stores a value. Cache write failures are not fatal to the fetch.
func (cm *CacheManager) Set(source, method string, params, value any) error {
	if !cm.enabled {
		return nil
	}
	if err := os.MkdirAll(cm.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cm.dir, cm.key(source, method, params)), data, 0o644)
}
