package main

import (
	"flag"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/updateinfo-db/pkg/log"
)

const (
	advisoryBucket = "advisory"
	nvrBucket      = "nvr"
)

var (
	oldBboltFile = flag.String("old_file", "cache/db/old.db", "old DB file")
	newBboltFile = flag.String("new_file", "cache/db/updateinfo.db", "new DB file")
)

func main() {
	flag.Parse()
	oldAdvs, oldNVRs, err := readFile(*oldBboltFile)
	if err != nil {
		log.Error("Failed to read the old DB", log.FilePath(*oldBboltFile), log.Err(err))
		os.Exit(1)
	}
	newAdvs, newNVRs, err := readFile(*newBboltFile)
	if err != nil {
		log.Error("Failed to read the new DB", log.FilePath(*newBboltFile), log.Err(err))
		os.Exit(1)
	}

	log.Info("Comparing advisories", log.Int("old", len(oldAdvs)), log.Int("new", len(newAdvs)))
	for id, oldAdv := range oldAdvs {
		newAdv, ok := newAdvs[id]
		if !ok {
			log.Info("Advisory does not exist in the new DB", log.AdvisoryID(id))
		} else if oldAdv != newAdv {
			log.Info("Advisory is different", log.AdvisoryID(id))
		}
	}
	for id := range newAdvs {
		if _, ok := oldAdvs[id]; !ok {
			log.Info("Advisory was added", log.AdvisoryID(id))
		}
	}

	log.Info("Comparing NVR index", log.Int("old", len(oldNVRs)), log.Int("new", len(newNVRs)))
	for nvr, oldID := range oldNVRs {
		if newID, ok := newNVRs[nvr]; !ok {
			log.Info("NVR does not exist in the new DB", log.String("nvr", nvr))
		} else if oldID != newID {
			log.Info("NVR points at another advisory", log.String("nvr", nvr),
				log.String("old", oldID), log.String("new", newID))
		}
	}
}

func readFile(file string) (advisories, nvrs map[string]string, err error) {
	advisories = make(map[string]string)
	nvrs = make(map[string]string)
	db, err := bolt.Open(file, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		for name, m := range map[string]map[string]string{advisoryBucket: advisories, nvrBucket: nvrs} {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			if err := b.ForEach(func(k, v []byte) error {
				m[string(k)] = string(v)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return advisories, nvrs, err
}
