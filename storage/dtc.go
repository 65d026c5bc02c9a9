package storage

import (
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketKey = "reported_dtcs"

var ErrEmptyECU = errors.New("empty ecu name")

// OpenDB opens (or creates) the bbolt database and makes sure the bucket exists.
// Every ECU gets its own nested bucket keyed by DTC id.
func OpenDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKey))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ecuBucket returns the nested bucket of ecu, or nil when it has none yet.
func ecuBucket(tx *bolt.Tx, ecu string) *bolt.Bucket {
	return tx.Bucket([]byte(bucketKey)).Bucket([]byte(ecu))
}

// IsNew reports whether the ECU has not reported dtc before and records it if so.
// The last seen status byte is stored either way.
func IsNew(db *bolt.DB, ecu, dtc string, status byte) (bool, error) {
	if ecu == "" {
		return false, ErrEmptyECU
	}
	var isNew bool

	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket([]byte(bucketKey)).CreateBucketIfNotExists([]byte(ecu))
		if err != nil {
			return err
		}
		isNew = b.Get([]byte(dtc)) == nil
		return b.Put([]byte(dtc), []byte{status})
	})
	return isNew, err
}

// Status returns the last status byte stored for dtc.
func Status(db *bolt.DB, ecu, dtc string) (byte, bool, error) {
	var (
		status byte
		found  bool
	)
	err := db.View(func(tx *bolt.Tx) error {
		b := ecuBucket(tx, ecu)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(dtc)); len(v) == 1 {
			status, found = v[0], true
		}
		return nil
	})
	return status, found, err
}

// List returns the DTCs recorded for ecu in key order.
func List(db *bolt.DB, ecu string) ([]string, error) {
	var dtcs []string
	err := db.View(func(tx *bolt.Tx) error {
		b := ecuBucket(tx, ecu)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			dtcs = append(dtcs, string(k))
			return nil
		})
	})
	return dtcs, err
}

func Remove(db *bolt.DB, ecu, dtc string) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := ecuBucket(tx, ecu)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(dtc))
	})
}

// ClearECU drops every DTC of ecu, as after a positive ClearDiagnosticInformation response.
func ClearECU(db *bolt.DB, ecu string) error {
	return db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(bucketKey)).DeleteBucket([]byte(ecu))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// ClearAll drops every record of every ECU.
func ClearAll(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketKey)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketKey))
		return err
	})
}
