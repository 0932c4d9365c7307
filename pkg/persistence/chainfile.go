// Package persistence implements the on-disk representation of a DataChain
// and its remembered peers: open-or-create, replay on load, append on
// write. A chain file's records are already the final committed form —
// nothing is appended until it fully validates — so replay is a straight
// decode-and-add pass, not a transactional WAL.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"datachain/core"
)

var persistLogger = logrus.New()

// SetPersistenceLogger overrides the package-level logger used for
// chain-file and peer-store I/O.
func SetPersistenceLogger(l *logrus.Logger) { persistLogger = l }

func init() { persistLogger.SetLevel(logrus.WarnLevel) }

const (
	chainFileMagic   uint32 = 0x44434831 // "DCH1"
	chainFileVersion uint32 = 1
)

// ChainFile is an open handle to a chain's on-disk file: a fixed header
// naming the file format version and group_size, followed by a
// length-prefixed run of canonically encoded blocks in append order.
type ChainFile struct {
	f         *os.File
	groupSize int
}

// CreateChainFile creates a new chain file at path for the given
// group_size, truncating any existing file. The create is logged with a
// fresh correlation ID (op_id); Append and the load path log no such ID.
func CreateChainFile(path string, groupSize int) (*ChainFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create chain file: %w", err)
	}
	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:4], chainFileMagic)
	binary.LittleEndian.PutUint32(header[4:8], chainFileVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(groupSize))
	if _, err := f.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write chain file header: %w", err)
	}
	persistLogger.WithFields(logrus.Fields{
		"path": path, "group_size": groupSize, "op_id": uuid.NewString(),
	}).Info("persistence: created chain file")
	return &ChainFile{f: f, groupSize: groupSize}, nil
}

// OpenChainFile opens an existing chain file, validating its header.
func OpenChainFile(path string) (*ChainFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read chain file header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	version := binary.LittleEndian.Uint32(header[4:8])
	groupSize := binary.LittleEndian.Uint32(header[8:12])
	if magic != chainFileMagic {
		_ = f.Close()
		return nil, fmt.Errorf("open chain file: bad magic %x", magic)
	}
	if version != chainFileVersion {
		_ = f.Close()
		return nil, fmt.Errorf("open chain file: unsupported version %d", version)
	}
	return &ChainFile{f: f, groupSize: int(groupSize)}, nil
}

// GroupSize returns the group_size recorded in the file's header.
func (cf *ChainFile) GroupSize() int { return cf.groupSize }

// Append writes block's canonical encoding to the end of the file,
// length-prefixed, and flushes it to stable storage before returning.
func (cf *ChainFile) Append(block core.Block) error {
	encoded := block.Encode()
	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(encoded)))

	if _, err := cf.f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("append block: seek: %w", err)
	}
	if _, err := cf.f.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("append block: write length: %w", err)
	}
	if _, err := cf.f.Write(encoded); err != nil {
		return fmt.Errorf("append block: write body: %w", err)
	}
	return cf.f.Sync()
}

// LoadAll reads every block in the file, in append order, constructs a
// DataChain from them, and validates the result. This is the replay step a
// node runs at startup before accepting new votes into a PendingCache.
func (cf *ChainFile) LoadAll() (*core.DataChain, error) {
	if _, err := cf.f.Seek(12, io.SeekStart); err != nil {
		return nil, fmt.Errorf("load chain file: seek: %w", err)
	}
	r := bufio.NewReader(cf.f)

	chain := core.NewDataChain(cf.groupSize)
	for {
		var lenPrefix [4]byte
		if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("load chain file: read length: %w", err)
		}
		n := binary.LittleEndian.Uint32(lenPrefix[:])
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("load chain file: read body: %w", err)
		}
		block, err := core.DecodeBlock(body)
		if err != nil {
			return nil, fmt.Errorf("load chain file: decode block: %w", err)
		}
		if err := chain.Add(block); err != nil {
			return nil, fmt.Errorf("load chain file: replay block: %w", err)
		}
	}
	persistLogger.WithField("blocks", chain.Len()).Debug("persistence: replayed chain file")
	return chain, nil
}

// Close releases the underlying file handle.
func (cf *ChainFile) Close() error { return cf.f.Close() }

// SaveChain writes chain to path in one shot, replacing any existing file.
func SaveChain(path string, chain *core.DataChain) error {
	cf, err := CreateChainFile(path, chain.GroupSize())
	if err != nil {
		return err
	}
	defer cf.Close()
	for _, blk := range chain.Blocks() {
		if err := cf.Append(blk); err != nil {
			return err
		}
	}
	return nil
}

// LoadChain opens the chain file at path and replays it into a validated
// DataChain.
func LoadChain(path string) (*core.DataChain, error) {
	cf, err := OpenChainFile(path)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	return cf.LoadAll()
}
