package db

import (
	"encoding/json"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

const (
	dataSourceBucket = "data-source"
)

func (dbc Config) PutDataSource(tx *bolt.Tx, sourceID string, source types.DataSource) error {
	eb := oops.With("root_bucket", dataSourceBucket).With("source_id", sourceID)
	bucket, err := tx.CreateBucketIfNotExists([]byte(dataSourceBucket))
	if err != nil {
		return eb.Wrapf(err, "failed to create bucket")
	}
	b, err := json.Marshal(source)
	if err != nil {
		return eb.Wrapf(err, "json marshal error")
	}

	return bucket.Put([]byte(sourceID), b)
}

// GetDataSource returns the zero DataSource when the source is unknown.
func (dbc Config) GetDataSource(sourceID string) (types.DataSource, error) {
	var source types.DataSource
	err := db.View(func(tx *bolt.Tx) error {
		var err error
		source, err = dbc.getDataSource(tx, sourceID)
		return err
	})
	if err != nil {
		return types.DataSource{}, oops.Wrapf(err, "failed to get data source")
	}
	return source, nil
}

func (dbc Config) getDataSource(tx *bolt.Tx, sourceID string) (types.DataSource, error) {
	eb := oops.With("root_bucket", dataSourceBucket).With("source_id", sourceID)
	bucket := tx.Bucket([]byte(dataSourceBucket))
	if bucket == nil {
		return types.DataSource{}, nil
	}

	b := bucket.Get([]byte(sourceID))
	if b == nil {
		return types.DataSource{}, nil
	}

	var source types.DataSource
	if err := json.Unmarshal(b, &source); err != nil {
		return types.DataSource{}, eb.Wrapf(err, "json unmarshal error")
	}

	return source, nil
}
