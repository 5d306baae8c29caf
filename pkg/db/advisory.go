package db

import (
	"encoding/json"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/updateinfo-db/pkg/store"
	"github.com/aquasecurity/updateinfo-db/pkg/types"
)

const (
	advisoryBucket = "advisory"
	packageBucket  = "package"
	nvrBucket      = "nvr"
	originBucket   = "advisory-source"
)

// putAdvisory stores the advisory record under its ID. Indexes are written by
// PutStore.
func (dbc Config) putAdvisory(tx *bolt.Tx, adv *types.Advisory) error {
	eb := oops.In("db").With("advisory_id", adv.ID)
	if adv.ID == "" {
		return eb.Wrapf(store.ErrNoID, "invalid advisory")
	}

	bkt, err := tx.CreateBucketIfNotExists([]byte(advisoryBucket))
	if err != nil {
		return eb.With("bucket_name", advisoryBucket).Wrapf(err, "failed to create a bucket")
	}
	b, err := json.Marshal(adv)
	if err != nil {
		return eb.Wrapf(err, "json marshal error")
	}
	if err = bkt.Put([]byte(adv.ID), b); err != nil {
		return eb.Wrapf(err, "failed to put advisory")
	}
	return nil
}

func (dbc Config) putOrigin(tx *bolt.Tx, advisoryID, sourceID string) error {
	bkt, err := tx.CreateBucketIfNotExists([]byte(originBucket))
	if err != nil {
		return oops.With("bucket_name", originBucket).Wrapf(err, "failed to create a bucket")
	}
	b, err := json.Marshal(sourceID)
	if err != nil {
		return oops.Wrapf(err, "json marshal error")
	}
	if err = bkt.Put([]byte(advisoryID), b); err != nil {
		return oops.With("advisory_id", advisoryID).Wrapf(err, "failed to put origin")
	}
	return nil
}

func (dbc Config) putNVR(tx *bolt.Tx, nvr, advisoryID string) error {
	bkt, err := tx.CreateBucketIfNotExists([]byte(nvrBucket))
	if err != nil {
		return oops.With("bucket_name", nvrBucket).Wrapf(err, "failed to create a bucket")
	}
	b, err := json.Marshal(advisoryID)
	if err != nil {
		return oops.Wrapf(err, "json marshal error")
	}
	if err = bkt.Put([]byte(nvr), b); err != nil {
		return oops.With("nvr", nvr).Wrapf(err, "failed to put nvr")
	}
	return nil
}

// PutStore replaces the advisories held in the database with the content of
// the store. The package and NVR indexes are copied from the store, so NVR
// pointers end up exactly as the store resolves them.
func (dbc Config) PutStore(st *store.Store) error {
	return dbc.BatchUpdate(func(tx *bolt.Tx) error {
		for _, name := range []string{advisoryBucket, packageBucket, nvrBucket, originBucket} {
			if err := dbc.deleteBucket(tx, name); err != nil {
				return err
			}
		}
		for _, adv := range st.All() {
			if err := dbc.putAdvisory(tx, adv); err != nil {
				return err
			}
			if src := st.Origin(adv.ID); src != "" {
				if err := dbc.putOrigin(tx, adv.ID, src); err != nil {
					return err
				}
			}
		}

		pkgRoot, err := tx.CreateBucketIfNotExists([]byte(packageBucket))
		if err != nil {
			return oops.With("bucket_name", packageBucket).Wrapf(err, "failed to create a bucket")
		}
		for _, name := range st.Names() {
			for _, adv := range st.Notices(name) {
				if err = dbc.put(pkgRoot, name, adv.ID, struct{}{}); err != nil {
					return oops.With("package_name", name).With("advisory_id", adv.ID).
						Wrapf(err, "failed to index package")
				}
			}
		}

		for nvr, adv := range st.NVRs() {
			if err = dbc.putNVR(tx, nvr, adv.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAdvisory returns nil when no advisory has the given ID.
func (dbc Config) GetAdvisory(id string) (*types.Advisory, error) {
	var adv *types.Advisory
	err := db.View(func(tx *bolt.Tx) error {
		var err error
		adv, err = dbc.getAdvisory(tx, id)
		return err
	})
	if err != nil {
		return nil, oops.Wrapf(err, "failed to get advisory")
	}
	return adv, nil
}

func (dbc Config) getAdvisory(tx *bolt.Tx, id string) (*types.Advisory, error) {
	bkt := tx.Bucket([]byte(advisoryBucket))
	if bkt == nil {
		return nil, nil
	}
	b := bkt.Get([]byte(id))
	if b == nil {
		return nil, nil
	}
	var adv types.Advisory
	if err := json.Unmarshal(b, &adv); err != nil {
		return nil, oops.With("advisory_id", id).Wrapf(err, "json unmarshal error")
	}
	return &adv, nil
}

// GetAdvisories returns the advisories listing a package with the given name,
// ordered by advisory ID.
func (dbc Config) GetAdvisories(pkgName string) ([]*types.Advisory, error) {
	var advs []*types.Advisory
	err := db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(packageBucket))
		if root == nil {
			return nil
		}
		bkt := root.Bucket([]byte(pkgName))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, _ []byte) error {
			adv, err := dbc.getAdvisory(tx, string(k))
			if err != nil {
				return err
			} else if adv == nil {
				return oops.With("advisory_id", string(k)).Errorf("dangling package index")
			}
			advs = append(advs, adv)
			return nil
		})
	})
	if err != nil {
		return nil, oops.With("package_name", pkgName).Wrapf(err, "failed to get advisories")
	}
	return advs, nil
}

// GetAdvisoryByNVR returns the advisory that last claimed the package build,
// or nil.
func (dbc Config) GetAdvisoryByNVR(name, version, release string) (*types.Advisory, error) {
	nvr := types.NVR(name, version, release)
	value, err := dbc.getValue(nvrBucket, nvr)
	if err != nil {
		return nil, oops.With("nvr", nvr).Wrapf(err, "failed to get nvr")
	} else if value == nil {
		return nil, nil
	}

	var id string
	if err = json.Unmarshal(value, &id); err != nil {
		return nil, oops.With("nvr", nvr).Wrapf(err, "json unmarshal error")
	}
	return dbc.GetAdvisory(id)
}

// GetAdvisoryOrigin returns the ID of the data source the advisory was first
// read from, or "".
func (dbc Config) GetAdvisoryOrigin(advisoryID string) (string, error) {
	value, err := dbc.getValue(originBucket, advisoryID)
	if err != nil {
		return "", oops.With("advisory_id", advisoryID).Wrapf(err, "failed to get origin")
	} else if value == nil {
		return "", nil
	}

	var sourceID string
	if err = json.Unmarshal(value, &sourceID); err != nil {
		return "", oops.With("advisory_id", advisoryID).Wrapf(err, "json unmarshal error")
	}
	return sourceID, nil
}

// ForEachAdvisory calls fn for every stored advisory in ID order and stops at
// the first error.
func (dbc Config) ForEachAdvisory(fn func(adv *types.Advisory) error) error {
	err := db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(advisoryBucket))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			var adv types.Advisory
			if err := json.Unmarshal(v, &adv); err != nil {
				return oops.With("advisory_id", string(k)).Wrapf(err, "json unmarshal error")
			}
			return fn(&adv)
		})
	})
	if err != nil {
		return oops.Wrapf(err, "failed to iterate advisories")
	}
	return nil
}

func (dbc Config) getValue(bucketName, key string) (value []byte, err error) {
	err = db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucketName))
		if bkt == nil {
			return nil
		}
		value = copyBytes(bkt.Get([]byte(key)))
		return nil
	})
	return value, err
}
