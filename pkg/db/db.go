package db

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

const (
	SchemaVersion = 1

	metadataBucket = "updateinfo-db"
)

var db *bolt.DB

type Operation interface {
	BatchUpdate(fn func(tx *bolt.Tx) error) error
	SetMetadata(metadata Metadata) error

	PutStore(st *store.Store) error
	PutDataSource(tx *bolt.Tx, sourceID string, source types.DataSource) error

	GetAdvisory(id string) (*types.Advisory, error)
	GetAdvisories(pkgName string) ([]*types.Advisory, error)
	GetAdvisoryByNVR(name, version, release string) (*types.Advisory, error)
	GetAdvisoryOrigin(advisoryID string) (string, error)
	ForEachAdvisory(fn func(adv *types.Advisory) error) error
	GetDataSource(sourceID string) (types.DataSource, error)
}

type Metadata struct {
	Version   int
	UpdatedAt time.Time
	// Sources lists the IDs of the repositories merged into the database.
	Sources []string `json:",omitempty"`
}

type Config struct {
}

func Init(cacheDir string) error {
	dbPath := Path(cacheDir)
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o700); err != nil {
		return oops.With("db_dir", dbDir).Wrapf(err, "failed to mkdir")
	}

	log.Debug("Opening the database", log.FilePath(dbPath))
	var err error
	db, err = bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return oops.With("db_path", dbPath).Wrapf(err, "failed to open db")
	}
	return nil
}

func Dir(cacheDir string) string {
	return filepath.Join(cacheDir, "db")
}

func Path(cacheDir string) string {
	return filepath.Join(Dir(cacheDir), "updateinfo.db")
}

func Close() error {
	// Skip closing the database if the connection is not established.
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return oops.Wrapf(err, "failed to close DB")
	}
	db = nil
	return nil
}

func GetVersion() int {
	metadata, err := Config{}.GetMetadata()
	if err != nil {
		return 0
	}
	return metadata.Version
}

func (dbc Config) GetMetadata() (Metadata, error) {
	value, err := dbc.get(metadataBucket, "metadata", "data")
	if err != nil {
		return Metadata{}, err
	} else if value == nil {
		return Metadata{}, oops.With("bucket_name", metadataBucket).Errorf("no metadata")
	}

	var metadata Metadata
	if err = json.Unmarshal(value, &metadata); err != nil {
		return Metadata{}, oops.Wrapf(err, "json unmarshal error")
	}
	return metadata, nil
}

func (dbc Config) SetMetadata(metadata Metadata) error {
	err := dbc.update(metadataBucket, "metadata", "data", metadata)
	if err != nil {
		return oops.Wrapf(err, "failed to save metadata")
	}
	return nil
}

func (dbc Config) BatchUpdate(fn func(tx *bolt.Tx) error) error {
	err := db.Batch(fn)
	if err != nil {
		return oops.Wrapf(err, "error in batch update")
	}
	return nil
}

func (dbc Config) update(rootBucket, nestedBucket, key string, value any) error {
	err := db.Update(func(tx *bolt.Tx) error {
		return dbc.putNestedBucket(tx, rootBucket, nestedBucket, key, value)
	})
	if err != nil {
		return oops.Wrapf(err, "error in db update")
	}
	return nil
}

func (dbc Config) putNestedBucket(tx *bolt.Tx, rootBucket, nestedBucket, key string, value any) error {
	root, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
	if err != nil {
		return oops.With("bucket_name", rootBucket).Wrapf(err, "failed to create a bucket")
	}
	return dbc.put(root, nestedBucket, key, value)
}

func (dbc Config) put(root *bolt.Bucket, nestedBucket, key string, value any) error {
	eb := oops.With("bucket_name", nestedBucket).With("key", key)
	nested, err := root.CreateBucketIfNotExists([]byte(nestedBucket))
	if err != nil {
		return eb.Wrapf(err, "failed to create a bucket")
	}
	v, err := json.Marshal(value)
	if err != nil {
		return eb.Wrapf(err, "json marshal error")
	}
	return nested.Put([]byte(key), v)
}

func (dbc Config) get(rootBucket, nestedBucket, key string) (value []byte, err error) {
	err = db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return nil
		}
		nested := root.Bucket([]byte(nestedBucket))
		if nested == nil {
			return nil
		}
		value = copyBytes(nested.Get([]byte(key)))
		return nil
	})
	if err != nil {
		return nil, oops.With("bucket_name", rootBucket).Wrapf(err, "failed to get data from db")
	}
	return value, nil
}

func (dbc Config) deleteBucket(tx *bolt.Tx, bucketName string) error {
	if err := tx.DeleteBucket([]byte(bucketName)); err != nil && err != bolt.ErrBucketNotFound {
		return oops.With("bucket_name", bucketName).Wrapf(err, "failed to delete bucket")
	}
	return nil
}

// copyBytes copies a value out of a read transaction, keeping nil as nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
