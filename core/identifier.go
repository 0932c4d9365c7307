package core

import "fmt"

// IdentifierKind tags what a BlockIdentifier names. Modelled as an explicit
// enumeration rather than an interface: the set of kinds is closed, and
// switches over it are exhaustive.
type IdentifierKind uint8

const (
	// KindImmutable names a content-addressed immutable blob: name = hash.
	KindImmutable IdentifierKind = iota
	// KindStructured names a mutable, versioned record: (hash, name, version).
	KindStructured
	// KindLink names a close-group composition, not a data item. It has no
	// externally meaningful name.
	KindLink
)

func (k IdentifierKind) String() string {
	switch k {
	case KindImmutable:
		return "Immutable"
	case KindStructured:
		return "Structured"
	case KindLink:
		return "Link"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// BlockIdentifier names what a Block is about: an immutable-data hash, a
// structured-data (hash, name, version) tuple, or a link descriptor derived
// from a close-group membership set.
type BlockIdentifier struct {
	kind    IdentifierKind
	hash    Digest
	name    Name
	version uint64
	group   []PublicKey // Link only: sorted, deduplicated member keys
}

// NewImmutableIdentifier builds an identifier for a content-hashed blob.
// Its name is the hash itself.
func NewImmutableIdentifier(h Digest) BlockIdentifier {
	return BlockIdentifier{kind: KindImmutable, hash: h, name: h}
}

// NewStructuredIdentifier builds an identifier for a versioned mutable
// record addressed by a fixed name, independent of its current content hash.
func NewStructuredIdentifier(h Digest, name Name, version uint64) BlockIdentifier {
	return BlockIdentifier{kind: KindStructured, hash: h, name: name, version: version}
}

// CreateLinkDescriptor hashes the sorted concatenation of groupKeys and
// returns the resulting Link identifier. It is idempotent under permutation
// of groupKeys because the keys are sorted before hashing, and
// under duplication because duplicates are removed.
func CreateLinkDescriptor(groupKeys []PublicKey) BlockIdentifier {
	sorted := SortPublicKeys(groupKeys)
	buf := make([]byte, 0, len(sorted)*len(PublicKey{}))
	for _, k := range sorted {
		buf = append(buf, k[:]...)
	}
	return BlockIdentifier{kind: KindLink, hash: HashBytes(buf), group: sorted}
}

// Kind returns the identifier's variant tag.
func (id BlockIdentifier) Kind() IdentifierKind { return id.kind }

// Name returns the identifier's externally meaningful name. Link
// identifiers have none: the second return value is false.
func (id BlockIdentifier) Name() (Name, bool) {
	if id.kind == KindLink {
		return Name{}, false
	}
	return id.name, true
}

// Version returns the structured-data version, or 0 for non-structured
// identifiers.
func (id BlockIdentifier) Version() uint64 { return id.version }

// Hash returns the identifier's digest: the content hash for Immutable and
// Structured identifiers, or the link-descriptor hash for Link identifiers.
func (id BlockIdentifier) Hash() Digest { return id.hash }

// GroupKeys returns the sorted key-set a Link identifier was derived from,
// or nil for non-Link identifiers. The returned slice must not be mutated.
func (id BlockIdentifier) GroupKeys() []PublicKey {
	if id.kind != KindLink {
		return nil
	}
	return id.group
}

// ContainsSigner reports whether pub is a member of a Link identifier's
// key-set. Non-Link identifiers never contain a signer in this sense and
// report false.
func (id BlockIdentifier) ContainsSigner(pub PublicKey) bool {
	if id.kind != KindLink {
		return false
	}
	for _, k := range id.group {
		if k == pub {
			return true
		}
	}
	return false
}

// Equal reports deep equality between two identifiers, including the Link
// key-set (not just the derived hash) so two Link identifiers that happen
// to collide on hash but not key-set are not conflated.
func (id BlockIdentifier) Equal(other BlockIdentifier) bool {
	if id.kind != other.kind || id.hash != other.hash || id.name != other.name || id.version != other.version {
		return false
	}
	if len(id.group) != len(other.group) {
		return false
	}
	for i := range id.group {
		if id.group[i] != other.group[i] {
			return false
		}
	}
	return true
}

// Encode returns the canonical, deterministic binary encoding used as the
// signed message for NodeBlocks over this identifier. Equal
// identifiers always produce byte-identical encodings.
func (id BlockIdentifier) Encode() []byte {
	e := newEncoder()
	e.byte(byte(id.kind))
	switch id.kind {
	case KindImmutable:
		e.raw(id.hash[:])
	case KindStructured:
		e.raw(id.hash[:])
		e.raw(id.name[:])
		e.u64(id.version)
	case KindLink:
		e.u32(uint32(len(id.group)))
		for _, k := range id.group {
			e.raw(k[:])
		}
	}
	return e.bytes()
}

// DecodeBlockIdentifier parses the canonical encoding produced by Encode.
func DecodeBlockIdentifier(b []byte) (BlockIdentifier, error) {
	d := newDecoder(b)
	tagByte, err := d.byte()
	if err != nil {
		return BlockIdentifier{}, fmt.Errorf("decode identifier: %w", err)
	}
	kind := IdentifierKind(tagByte)
	var id BlockIdentifier
	switch kind {
	case KindImmutable:
		h, err := d.raw(len(Digest{}))
		if err != nil {
			return BlockIdentifier{}, fmt.Errorf("decode immutable identifier: %w", err)
		}
		var hash Digest
		copy(hash[:], h)
		id = NewImmutableIdentifier(hash)
	case KindStructured:
		h, err := d.raw(len(Digest{}))
		if err != nil {
			return BlockIdentifier{}, fmt.Errorf("decode structured identifier hash: %w", err)
		}
		n, err := d.raw(len(Name{}))
		if err != nil {
			return BlockIdentifier{}, fmt.Errorf("decode structured identifier name: %w", err)
		}
		version, err := d.u64()
		if err != nil {
			return BlockIdentifier{}, fmt.Errorf("decode structured identifier version: %w", err)
		}
		var hash, name Digest
		copy(hash[:], h)
		copy(name[:], n)
		id = NewStructuredIdentifier(hash, name, version)
	case KindLink:
		count, err := d.u32()
		if err != nil {
			return BlockIdentifier{}, fmt.Errorf("decode link identifier count: %w", err)
		}
		if int(count) > d.remaining()/len(PublicKey{}) {
			return BlockIdentifier{}, fmt.Errorf("decode link identifier: count %d exceeds input", count)
		}
		group := make([]PublicKey, count)
		for i := range group {
			k, err := d.raw(len(PublicKey{}))
			if err != nil {
				return BlockIdentifier{}, fmt.Errorf("decode link identifier key %d: %w", i, err)
			}
			copy(group[i][:], k)
		}
		id = CreateLinkDescriptor(group)
	default:
		return BlockIdentifier{}, fmt.Errorf("decode identifier: unknown kind %d", tagByte)
	}
	if !d.done() {
		return BlockIdentifier{}, fmt.Errorf("decode identifier: %d trailing bytes", d.remaining())
	}
	return id, nil
}
