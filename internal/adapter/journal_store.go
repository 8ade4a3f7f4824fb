package adapter

import (
	"time"

	"github.com/hashicorp/go-multierror"
	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/ugorji/go/codec"
	bolt "go.etcd.io/bbolt"
)

const (
	journalBucket      = "writes"
	journalOpenMode    = 0o600
	journalOpenTimeout = time.Second
)

// JournalStore persists completed pipeline writes, keyed by source path, so
// an interrupted edit run can be resumed.
type JournalStore interface {
	// Record stores rec, replacing any earlier record for the same source.
	Record(rec m.WriteRecord) error
	// Written returns the record for source, if one exists.
	Written(source m.Path) (m.WriteRecord, bool, error)
	// Records returns every record, ordered by source path.
	Records() ([]m.WriteRecord, error)
	Close() error
}

// BoltJournalStore is a JournalStore in a single bolt database file.
type BoltJournalStore struct {
	db *bolt.DB
	ch codec.Handle
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path m.Path) (*BoltJournalStore, error) {
	db, err := bolt.Open(string(path), journalOpenMode, &bolt.Options{Timeout: journalOpenTimeout})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, errc := tx.CreateBucketIfNotExists([]byte(journalBucket))

		return errc
	})
	if err != nil {
		var errm *multierror.Error

		errm = multierror.Append(errm, err)
		errm = multierror.Append(errm, db.Close())

		return nil, errm.ErrorOrNil()
	}

	return &BoltJournalStore{db: db, ch: new(codec.BincHandle)}, nil
}

// Record implements JournalStore.
func (j *BoltJournalStore) Record(rec m.WriteRecord) error {
	encoded, err := j.encode(rec)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(journalBucket)).Put([]byte(rec.Source), encoded)
	})
}

// Written implements JournalStore.
func (j *BoltJournalStore) Written(source m.Path) (m.WriteRecord, bool, error) {
	var (
		rec   m.WriteRecord
		found bool
	)

	err := j.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(journalBucket)).Get([]byte(source))
		if v == nil {
			return nil
		}

		found = true

		return j.decode(v, &rec)
	})

	return rec, found, err
}

// Records implements JournalStore.
func (j *BoltJournalStore) Records() ([]m.WriteRecord, error) {
	var recs []m.WriteRecord

	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(journalBucket)).ForEach(func(_, v []byte) error {
			var rec m.WriteRecord
			if err := j.decode(v, &rec); err != nil {
				return err
			}

			recs = append(recs, rec)

			return nil
		})
	})

	return recs, err
}

// Close closes the database.
func (j *BoltJournalStore) Close() error {
	return j.db.Close()
}

func (j *BoltJournalStore) encode(rec m.WriteRecord) ([]byte, error) {
	var encoded []byte

	enc := codec.NewEncoderBytes(&encoded, j.ch)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return encoded, nil
}

func (j *BoltJournalStore) decode(encoded []byte, rec *m.WriteRecord) error {
	dec := codec.NewDecoderBytes(encoded, j.ch)

	return dec.Decode(rec)
}
