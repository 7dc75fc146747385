package truststore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/move-everything/installer/internal/models"
)

const fileStoreVersion = "1.0"

// FileStore is the fallback for hosts without a usable credential store.
// Secrets are written to a single owner-only yaml file.
type FileStore struct {
	lock    sync.Mutex // Ensure thread-safe access
	path    string
	service string
}

type secretFile struct {
	Version   string                       `yaml:"version"`
	Timestamp time.Time                    `yaml:"timestamp"`
	Services  map[string]map[string]string `yaml:"services"`
}

func NewFileStore(path, service string) *FileStore {
	return &FileStore{path: path, service: service}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"path":    s.path,
		"service": s.service,
		"key":     key,
	}).Debugln("Saving secret to file store")

	data, err := s.read()
	if err != nil {
		return err
	}

	entries, ok := data.Services[s.service]
	if !ok {
		entries = make(map[string]string)
		data.Services[s.service] = entries
	}
	entries[key] = value

	return s.commit(data)
}

func (s *FileStore) Load(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.read()
	if err != nil {
		return "", false, err
	}

	value, ok := data.Services[s.service][key]
	return value, ok, nil
}

func (s *FileStore) Delete(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}

	entries, ok := data.Services[s.service]
	if !ok {
		return nil
	}
	if _, ok := entries[key]; !ok {
		return nil
	}

	delete(entries, key)
	if len(entries) == 0 {
		delete(data.Services, s.service)
	}

	return s.commit(data)
}

func (s *FileStore) read() (*secretFile, error) {
	data := &secretFile{
		Version:  fileStoreVersion,
		Services: make(map[string]map[string]string),
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, models.WrapError(models.KindIOError, err, "failed to read %s", s.path)
	}
	if len(raw) == 0 {
		return data, nil
	}

	if err := yaml.Unmarshal(raw, data); err != nil {
		// If YAML parsing fails, log the error and reinitialize
		logrus.WithError(err).Errorf("Failed to parse trust store %s, reinitializing", s.path)
		return &secretFile{
			Version:  fileStoreVersion,
			Services: make(map[string]map[string]string),
		}, nil
	}
	if data.Services == nil {
		data.Services = make(map[string]map[string]string)
	}

	return data, nil
}

// commit replaces the file in one rename so a reader never sees a partial write
func (s *FileStore) commit(data *secretFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to create %s", dir)
	}

	data.Version = fileStoreVersion
	data.Timestamp = time.Now().UTC()

	encoded, err := yaml.Marshal(data)
	if err != nil {
		return models.WrapError(models.KindIOError, err, "failed to encode trust store")
	}

	tmp, err := os.CreateTemp(dir, ".truststore-*")
	if err != nil {
		return models.WrapError(models.KindIOError, err, "failed to create temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return models.WrapError(models.KindPermissionError, err, "failed to restrict %s", tmpName)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return models.WrapError(models.KindIOError, err, "failed to write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to close %s", tmpName)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to replace %s", s.path)
	}

	return nil
}
