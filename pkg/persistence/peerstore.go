package persistence

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"os"

	"datachain/core"
)

const (
	peerFileMagic   uint32 = 0x44435052 // "DCPR"
	peerFileVersion uint32 = 1
)

// SavePeerStore writes view's current membership to path: a fixed header,
// the length-prefixed sorted list of public keys previously observed, and
// the furthest XOR distance to a current member — the network_difficulty
// heuristic a freshly restarted node seeds its distance expectations from.
// Everything is assembled in memory and written with one os.WriteFile call,
// which truncates the file first, so an interrupted write can leave it
// partial.
func SavePeerStore(path string, view *core.ClosegroupView) error {
	keys := view.Keys()

	var difficulty []byte
	if d := view.FurthestDistance(); d != nil {
		difficulty = d.Bytes()
	}

	buf := make([]byte, 0, 12+len(keys)*len(core.PublicKey{})+4+len(difficulty))
	buf = binary.LittleEndian.AppendUint32(buf, peerFileMagic)
	buf = binary.LittleEndian.AppendUint32(buf, peerFileVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = append(buf, k[:]...)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(difficulty)))
	buf = append(buf, difficulty...)

	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("save peer store: %w", err)
	}
	persistLogger.WithField("peers", len(keys)).Debug("persistence: saved peer store")
	return nil
}

// LoadPeerStore reads a previously saved peer store file and rebuilds a
// ClosegroupView centered on self. It returns the persisted
// network_difficulty as a *big.Int, or nil if none was recorded.
func LoadPeerStore(path string, self core.PublicKey) (*core.ClosegroupView, *big.Int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load peer store: %w", err)
	}
	if len(raw) < 12 {
		return nil, nil, fmt.Errorf("load peer store: truncated header")
	}
	if magic := binary.LittleEndian.Uint32(raw[0:4]); magic != peerFileMagic {
		return nil, nil, fmt.Errorf("load peer store: bad magic %x", magic)
	}
	if version := binary.LittleEndian.Uint32(raw[4:8]); version != peerFileVersion {
		return nil, nil, fmt.Errorf("load peer store: unsupported version %d", version)
	}
	count := int(binary.LittleEndian.Uint32(raw[8:12]))
	off := 12

	keyWidth := len(core.PublicKey{})
	if count > (len(raw)-off)/keyWidth {
		return nil, nil, fmt.Errorf("load peer store: key count %d exceeds file size", count)
	}
	view := core.NewClosegroupView(self)
	for i := 0; i < count; i++ {
		var pub core.PublicKey
		copy(pub[:], raw[off:off+keyWidth])
		off += keyWidth
		view.Join(pub)
	}

	if len(raw[off:]) < 4 {
		return nil, nil, fmt.Errorf("load peer store: truncated difficulty length")
	}
	diffLen := int(binary.LittleEndian.Uint32(raw[off : off+4]))
	off += 4
	if diffLen > len(raw)-off {
		return nil, nil, fmt.Errorf("load peer store: truncated difficulty")
	}
	if off+diffLen != len(raw) {
		return nil, nil, fmt.Errorf("load peer store: %d trailing bytes", len(raw)-off-diffLen)
	}
	if diffLen == 0 {
		return view, nil, nil
	}
	return view, new(big.Int).SetBytes(raw[off : off+diffLen]), nil
}
