package core

import "fmt"

// Kind is a coarse, programmatically-matchable error category.
// No chain operation partially mutates state: either it succeeds and the
// caller sees the change, or it returns one of these kinds and the chain is
// byte-for-byte unchanged.
type Kind uint8

const (
	// KindSignature: a proof failed cryptographic verification.
	KindSignature Kind = iota
	// KindMajority: the rolling-quorum predicate failed between a pair of blocks.
	KindMajority
	// KindEmptyMustBeLink: attempted to seed a chain with a non-link block.
	KindEmptyMustBeLink
	// KindLinkMismatch: a link block's signer set is not a subset of its
	// identifier's key set.
	KindLinkMismatch
	// KindLinkLoadBearing: attempted delete of a link that anchors
	// subsequent data blocks.
	KindLinkLoadBearing
	// KindDuplicateSigner: a second signature by the same key was offered.
	KindDuplicateSigner
	// KindNoCommonAnchor: merge could not find a quorum-equivalent shared link.
	KindNoCommonAnchor
	// KindMergeInvalid: a merged chain failed post-validation.
	KindMergeInvalid
	// KindSerialization: canonical encoding failed.
	KindSerialization
	// KindNotFound: delete target absent.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindSignature:
		return "Signature"
	case KindMajority:
		return "Majority"
	case KindEmptyMustBeLink:
		return "EmptyMustBeLink"
	case KindLinkMismatch:
		return "LinkMismatch"
	case KindLinkLoadBearing:
		return "LinkLoadBearing"
	case KindDuplicateSigner:
		return "DuplicateSigner"
	case KindNoCommonAnchor:
		return "NoCommonAnchor"
	case KindMergeInvalid:
		return "MergeInvalid"
	case KindSerialization:
		return "Serialization"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// ChainError is the error type returned by every fallible chain operation.
// It carries a Kind for callers that need to branch on failure category
// (e.g. retry on KindMajority after a churn, but never on KindSignature),
// plus the wrapped underlying cause for logging.
type ChainError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ChainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *ChainError) Unwrap() error { return e.Err }

// Is reports whether target is a *ChainError with the same Kind, so callers
// can use errors.Is(err, core.ErrMajority) style checks via the sentinel
// values below.
func (e *ChainError) Is(target error) bool {
	ce, ok := target.(*ChainError)
	if !ok {
		return false
	}
	return e.Kind == ce.Kind
}

func newChainError(kind Kind, op string, cause error) *ChainError {
	return &ChainError{Kind: kind, Op: op, Err: cause}
}

// Sentinel values usable with errors.Is(err, core.ErrSignature) and friends;
// they carry no Op or cause and exist purely as comparison targets.
var (
	ErrSignature       = &ChainError{Kind: KindSignature}
	ErrMajority        = &ChainError{Kind: KindMajority}
	ErrEmptyMustBeLink = &ChainError{Kind: KindEmptyMustBeLink}
	ErrLinkMismatch    = &ChainError{Kind: KindLinkMismatch}
	ErrLinkLoadBearing = &ChainError{Kind: KindLinkLoadBearing}
	ErrDuplicateSigner = &ChainError{Kind: KindDuplicateSigner}
	ErrNoCommonAnchor  = &ChainError{Kind: KindNoCommonAnchor}
	ErrMergeInvalid    = &ChainError{Kind: KindMergeInvalid}
	ErrSerialization   = &ChainError{Kind: KindSerialization}
	ErrNotFound        = &ChainError{Kind: KindNotFound}
)
