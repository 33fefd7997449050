package engine

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/hailam/nnueuchess/internal/board"
)

// TTStore persists TranspositionTable entries to an embedded BadgerDB,
// keyed by the same 64-bit Zobrist key the in-memory table uses, so a
// long-running analysis session can warm-start its hash table across
// restarts. Grounded on the teacher's own Storage wrapper
// (internal/storage/storage.go in the retrieved pack), which opens a
// BadgerDB with logging disabled and reads/writes JSON blobs under
// fixed keys; here the key is the position hash itself and the value
// is a compact binary record, zstd-compressed before it reaches
// badger (badger itself supports pluggable value compression, but
// compressing ourselves lets a single small record avoid badger's
// block-level overhead).
type TTStore struct {
	db  *badger.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// OpenTTStore opens (creating if absent) a BadgerDB under dir.
func OpenTTStore(dir string) (*TTStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	return &TTStore{db: db, enc: enc, dec: dec}, nil
}

// Close releases the zstd codecs and the database handle.
func (s *TTStore) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

const ttRecordSize = 6 // depth(1) + move(2) + value(2) + exact(1)

func encodeTTRecord(depth int8, move board.Move, value int16, exact bool) []byte {
	buf := make([]byte, ttRecordSize)
	buf[0] = byte(depth)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(move))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(value))
	if exact {
		buf[5] = 1
	}
	return buf
}

func decodeTTRecord(buf []byte) (depth int8, move board.Move, value int16, exact bool) {
	depth = int8(buf[0])
	move = board.Move(binary.LittleEndian.Uint16(buf[1:3]))
	value = int16(binary.LittleEndian.Uint16(buf[3:5]))
	exact = buf[5] != 0
	return
}

// SaveSnapshot writes every occupied bucket of tt to disk in a single
// batched transaction, each record independently zstd-compressed.
func (s *TTStore) SaveSnapshot(tt *TranspositionTable) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range tt.entries {
		e := tt.entries[i]
		if e.key == 0 && e.move == board.NoMove {
			continue
		}
		keyBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(keyBuf, e.key)
		record := s.enc.EncodeAll(encodeTTRecord(e.depth, e.move, e.value, e.exact), nil)
		if err := wb.Set(keyBuf, record); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// LoadSnapshot populates tt from every record stored on disk,
// overwriting whatever bucket each key's zobrist hash maps to (later
// reads may evict earlier ones on collision, which is fine: the table
// is always-replace and lossy by design).
func (s *TTStore) LoadSnapshot(tt *TranspositionTable) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := binary.LittleEndian.Uint64(item.Key())

			err := item.Value(func(compressed []byte) error {
				raw, err := s.dec.DecodeAll(compressed, nil)
				if err != nil {
					return err
				}
				depth, move, value, exact := decodeTTRecord(raw)
				tt.Save(key, int(value), int(depth), move, exact)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
