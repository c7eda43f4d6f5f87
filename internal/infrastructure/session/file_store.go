package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore keeps the session in a JSON document shared by several origins:
// {"<origin>": {"wallet": "injected_bnb", "connected": "true"}}.
type FileStore struct {
	path   string
	origin string
	mu     sync.Mutex
}

func NewFileStore(path, origin string) *FileStore {
	return &FileStore{path: path, origin: origin}
}

func (s *FileStore) Save(key entity.ProviderKey) error {
	return s.update(func(values map[string]string) {
		values[port.SessionKeyWallet] = string(key)
	})
}

func (s *FileStore) Load() (entity.ProviderKey, bool, error) {
	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	key, ok := values[port.SessionKeyWallet]
	return entity.ProviderKey(key), ok, nil
}

func (s *FileStore) MarkConnected() error {
	return s.update(func(values map[string]string) {
		values[port.SessionKeyConnected] = markerValue
	})
}

func (s *FileStore) IsMarkedConnected() (bool, error) {
	values, err := s.read()
	if err != nil {
		return false, err
	}
	_, ok := values[port.SessionKeyConnected]
	return ok, nil
}

func (s *FileStore) ClearConnected() error {
	return s.update(func(values map[string]string) {
		delete(values, port.SessionKeyConnected)
	})
}

func (s *FileStore) Clear() error {
	return s.update(func(values map[string]string) {
		delete(values, port.SessionKeyWallet)
		delete(values, port.SessionKeyConnected)
	})
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDocument()
	if err != nil {
		return nil, err
	}
	return doc[s.origin], nil
}

func (s *FileStore) update(fn func(values map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadDocument()
	if err != nil {
		return err
	}
	values := doc[s.origin]
	if values == nil {
		values = make(map[string]string)
	}
	fn(values)
	if len(values) == 0 {
		delete(doc, s.origin)
	} else {
		doc[s.origin] = values
	}
	return s.writeDocument(doc)
}

func (s *FileStore) loadDocument() (map[string]map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file %s: %w", s.path, err)
	}

	doc := make(map[string]map[string]string)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return doc, nil
}

// writeDocument replaces the file through a rename so readers never see a partial document.
func (s *FileStore) writeDocument(doc map[string]map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file %s: %w", s.path, err)
	}
	return nil
}
