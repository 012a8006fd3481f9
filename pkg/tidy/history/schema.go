package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Schema versions:
// 1 - gob records keyed by start time, with an ID index
const CurrentSchemaVersion = 1

var schemaKey = []byte("meta" + string(keySeparator) + "schema")

// ErrSchemaMismatch is returned by Open when the store was written in a
// format this build cannot read. 'tidy history rebuild' into a fresh
// directory recovers it from the run log.
var ErrSchemaMismatch = errors.New("history schema mismatch")

// Schema holds store format information.
type Schema struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schema returns the stored schema, or nil if none is set.
func (s *Store) Schema() *Schema {
	var schema *Schema
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(schemaKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			schema = &Schema{}
			return json.Unmarshal(val, schema)
		})
	})
	return schema
}

func (s *Store) setSchema(version int) error {
	data, err := json.Marshal(Schema{Version: version, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(schemaKey, data)
	})
}

// checkSchema stamps a new store and rejects one written in another
// format.
func (s *Store) checkSchema() error {
	schema := s.Schema()
	if schema == nil {
		if s.hasRecords() {
			return fmt.Errorf("%w: records without a schema version", ErrSchemaMismatch)
		}
		return s.setSchema(CurrentSchemaVersion)
	}
	if schema.Version != CurrentSchemaVersion {
		return fmt.Errorf("%w: store version %d, supported %d", ErrSchemaMismatch, schema.Version, CurrentSchemaVersion)
	}
	return nil
}

func (s *Store) hasRecords() bool {
	var found bool
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = runPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(runPrefix)
		found = it.ValidForPrefix(runPrefix)
		return nil
	})
	return found
}
