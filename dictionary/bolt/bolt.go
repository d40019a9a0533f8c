// Package bolt keeps translations in a BoltDB file with one bucket
// per language.
package bolt

import (
	"context"
	"errors"
	"time"

	"github.com/Comcast/binder/dictionary"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// NotOpen is returned by operations on a Store that isn't open.
var NotOpen = errors.New("translation store not open")

// Store is a BoltDB translation database.
type Store struct {
	filename string
	db       *bolt.DB
	logger   *zap.Logger
}

// NewStore makes a Store for the file.  Call Open before using it.
func NewStore(filename string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		filename: filename,
		logger:   logger,
	}
}

func (s *Store) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Put writes the translations for the language, creating its bucket
// if necessary.
func (s *Store) Put(ctx context.Context, lang string, m dictionary.Map) error {
	if s.db == nil {
		return NotOpen
	}
	s.logger.Debug("put translations", zap.String("language", lang), zap.Int("count", len(m)))
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(lang))
		if err != nil {
			return err
		}
		for k, v := range m {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutAll writes the translations for every language.
func (s *Store) PutAll(ctx context.Context, ls dictionary.Languages) error {
	for _, lang := range ls.Names() {
		if err := s.Put(ctx, lang, ls[lang]); err != nil {
			return err
		}
	}
	return nil
}

// Languages returns the languages in the database.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			acc = append(acc, string(name))
			return nil
		})
	})
	return acc, err
}

// Dictionary returns the Dictionary for one language.
func (s *Store) Dictionary(lang string) *Dictionary {
	return &Dictionary{
		store: s,
		lang:  lang,
	}
}

// Dictionary is a dictionary.Dictionary backed by one bucket.
type Dictionary struct {
	store *Store
	lang  string
}

func (d *Dictionary) Get(ctx context.Context, key string) (string, bool, error) {
	if d.store.db == nil {
		return "", false, NotOpen
	}
	var (
		s    string
		have bool
	)
	err := d.store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(d.lang))
		if b == nil {
			return nil
		}
		if bs := b.Get([]byte(key)); bs != nil {
			s = string(bs)
			have = true
		}
		return nil
	})
	return s, have, err
}
