package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	IDSchemeSequential = "sequential"
	IDSchemeHashed     = "hashed"
	IDSchemeStride     = "stride"

	DefaultIDStride = 10
)

var (
	ErrIDCollision = errors.New("point id collision")

	// ErrInvalidConfiguration marks uploader options that can never work.
	ErrInvalidConfiguration = errors.New("invalid uploader configuration")
)

// pointNamespace seeds name-based ids; changing it changes every hashed id.
var pointNamespace = uuid.MustParse("6f1c2a9e-3b7d-4e0a-9c55-1d2e8b7a4f10")

type idAssigner interface {
	// ids returns one id per chunk of the document at docIndex.
	ids(docIndex int, docID string, chunkCount int) ([]uint64, error)
}

func newIDAssigner(scheme string, stride int) (idAssigner, error) {
	switch scheme {
	case "", IDSchemeSequential:
		return &sequentialIDs{}, nil
	case IDSchemeHashed:
		return hashedIDs{}, nil
	case IDSchemeStride:
		if stride <= 0 {
			return nil, fmt.Errorf("%w: id stride must be positive, got %d", ErrInvalidConfiguration, stride)
		}
		return strideIDs{stride: stride}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported id scheme %q", ErrInvalidConfiguration, scheme)
	}
}

// sequentialIDs hands out 0, 1, 2, ... across the whole run.
type sequentialIDs struct {
	next uint64
}

func (s *sequentialIDs) ids(_ int, _ string, chunkCount int) ([]uint64, error) {
	out := make([]uint64, chunkCount)
	for i := range out {
		out[i] = s.next
		s.next++
	}
	return out, nil
}

// hashedIDs derives ids from the document id and chunk position, so the same
// article always maps onto the same points.
type hashedIDs struct{}

func (hashedIDs) ids(_ int, docID string, chunkCount int) ([]uint64, error) {
	out := make([]uint64, chunkCount)
	for i := range out {
		out[i] = HashedPointID(docID, i)
	}
	return out, nil
}

func HashedPointID(docID string, chunkIndex int) uint64 {
	u := uuid.NewSHA1(pointNamespace, []byte(docID+"#"+strconv.Itoa(chunkIndex)))
	return binary.BigEndian.Uint64(u[:8])
}

// strideIDs is docIndex*stride + i. A document with more chunks than the
// stride would overwrite its neighbour's points, so it is refused.
type strideIDs struct {
	stride int
}

func (s strideIDs) ids(docIndex int, _ string, chunkCount int) ([]uint64, error) {
	if chunkCount > s.stride {
		return nil, fmt.Errorf("%w: document %d has %d chunks, stride is %d",
			ErrIDCollision, docIndex, chunkCount, s.stride)
	}
	out := make([]uint64, chunkCount)
	for i := range out {
		out[i] = uint64(docIndex*s.stride + i)
	}
	return out, nil
}
