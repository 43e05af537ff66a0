package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketAccounts  = []byte("accounts_by_slot")
	bucketProofs    = []byte("open_proofs_by_slot")
	bucketPool      = []byte("pool_by_id")
	bucketPoolOrder = []byte("pool_order_by_seq")
)

// DB is the persistent backing store for one engine.Engine instance.
type DB struct {
	dataDir string
	db      *bolt.DB

	manifest *Manifest
	nextSeq  uint64
}

// Open opens (creating if absent) the bbolt file under dataDir/db and
// loads the manifest if one already exists. A freshly created DB
// returns manifest == nil; the caller must SetManifest once genesis
// state is established.
func Open(dataDir string) (*DB, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("store: data dir required")
	}
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}
	if err := ensureDir(dbDir(dataDir)); err != nil {
		return nil, err
	}

	bdb, err := bolt.Open(dbFilePath(dataDir), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	d := &DB{dataDir: dataDir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAccounts, bucketProofs, bucketPool, bucketPoolOrder} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	seq, err := d.loadNextSeq()
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	d.nextSeq = seq

	m, err := readManifest(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		_ = bdb.Close()
		return nil, fmt.Errorf("store: read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("store: manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) SetManifest(m Manifest) error {
	if err := writeManifestAtomic(d.dataDir, &m); err != nil {
		return err
	}
	d.manifest = &m
	return nil
}

func slotKey(slot uint32) []byte {
	var k [4]byte
	binary.LittleEndian.PutUint32(k[:], slot)
	return k[:]
}

func (d *DB) PutAccount(slot uint32, rec AccountRecord) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).Put(slotKey(slot), encodeAccount(rec))
	})
}

func (d *DB) GetAccount(slot uint32) (AccountRecord, bool, error) {
	var out AccountRecord
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAccounts).Get(slotKey(slot))
		if v == nil {
			return nil
		}
		rec, err := decodeAccount(v)
		if err != nil {
			return err
		}
		out, ok = rec, true
		return nil
	})
	return out, ok, err
}

// LoadAllAccounts returns every persisted account record keyed by
// slot, for rebuilding account_table on restart.
func (d *DB) LoadAllAccounts() (map[uint32]AccountRecord, error) {
	out := make(map[uint32]AccountRecord)
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			slot := binary.LittleEndian.Uint32(k)
			rec, err := decodeAccount(v)
			if err != nil {
				return fmt.Errorf("store: decode account at slot %d: %w", slot, err)
			}
			out[slot] = rec
			return nil
		})
	})
	return out, err
}

func (d *DB) PutOpenProof(slot uint32, proof curve.G1) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProofs).Put(slotKey(slot), curve.G1Bytes(proof))
	})
}

// PutOpenProofs persists every slot's opening proof in a single
// transaction, used after ApplyBlock's proof-refresh pass.
func (d *DB) PutOpenProofs(proofs []curve.G1) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProofs)
		for slot, proof := range proofs {
			if err := b.Put(slotKey(uint32(slot)), curve.G1Bytes(proof)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) LoadAllOpenProofs(n uint64) ([]curve.G1, error) {
	out := make([]curve.G1, n)
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProofs)
		for slot := uint64(0); slot < n; slot++ {
			v := b.Get(slotKey(uint32(slot)))
			if v == nil {
				continue
			}
			p, err := curve.G1FromBytes(v)
			if err != nil {
				return fmt.Errorf("store: decode proof at slot %d: %w", slot, err)
			}
			out[slot] = p
		}
		return nil
	})
	return out, err
}

func (d *DB) loadNextSeq() (uint64, error) {
	var maxSeq uint64
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPoolOrder).Cursor()
		k, _ := c.Last()
		if k == nil {
			return nil
		}
		maxSeq = binary.BigEndian.Uint64(k) + 1
		return nil
	})
	return maxSeq, err
}

// AppendPending persists tx at the back of the durable pending-pool
// log, assigning it the next sequence number.
func (d *DB) AppendPending(tx *ledger.Tx) error {
	encoded, err := tx.Encode()
	if err != nil {
		return fmt.Errorf("store: encode pending tx: %w", err)
	}
	seq := d.nextSeq
	var seqKey [8]byte
	binary.BigEndian.PutUint64(seqKey[:], seq)
	id := []byte(tx.ID())

	err = d.db.Update(func(btx *bolt.Tx) error {
		if err := btx.Bucket(bucketPoolOrder).Put(seqKey[:], id); err != nil {
			return err
		}
		return btx.Bucket(bucketPool).Put(id, encoded)
	})
	if err != nil {
		return err
	}
	d.nextSeq++
	return nil
}

// LoadPending returns every durably pending transaction in insertion
// order, for rebuilding the in-memory pool on restart.
func (d *DB) LoadPending() ([]*ledger.Tx, error) {
	var ids [][]byte
	if err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPoolOrder).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ids = append(ids, append([]byte(nil), v...))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]*ledger.Tx, 0, len(ids))
	err := d.db.View(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketPool)
		for _, id := range ids {
			v := b.Get(id)
			if v == nil {
				continue
			}
			decoded, _, err := ledger.DecodeTx(v)
			if err != nil {
				return fmt.Errorf("store: decode pending tx: %w", err)
			}
			out = append(out, decoded)
		}
		return nil
	})
	return out, err
}

// RemovePending deletes a transaction from the durable pool by id; a
// no-op if it is not present.
func (d *DB) RemovePending(id string) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPool).Delete([]byte(id))
	})
}
