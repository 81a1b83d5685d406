package bloom

// BitVector is the storage capability consumed by the filter. Blooms only
// grow, so there is no way to unset a bit. Clone must return a fully
// independent copy; the filter relies on it for persistent updates.
type BitVector interface {
	Get(i int) bool
	Set(i int)
	Clone() BitVector
	Size() int
}

// BitVectorFactory constructs bit vectors of a given size. Injecting the
// factory keeps the filter agnostic of the backing (flat slice, packed
// words, Redis bitmap).
type BitVectorFactory interface {
	New(size int) BitVector
}

// FlatBitFactory backs bit vectors with a plain []bool. One byte per bit,
// but trivially debuggable. Useful in tests and small filters.
type FlatBitFactory struct{}

func (FlatBitFactory) New(size int) BitVector {
	return make(flatBits, size)
}

type flatBits []bool

func (f flatBits) Get(i int) bool { return f[i] }
func (f flatBits) Set(i int)      { f[i] = true }
func (f flatBits) Size() int      { return len(f) }

func (f flatBits) Clone() BitVector {
	c := make(flatBits, len(f))
	copy(c, f)
	return c
}

// PackedBitFactory backs bit vectors with []uint64 words, 8x denser than
// flatBits. This is the default backing.
type PackedBitFactory struct{}

func (PackedBitFactory) New(size int) BitVector {
	return &packedBits{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

type packedBits struct {
	words []uint64
	size  int
}

func (p *packedBits) Get(i int) bool {
	return p.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (p *packedBits) Set(i int) {
	p.words[i/64] |= 1 << (uint(i) % 64)
}

func (p *packedBits) Size() int { return p.size }

func (p *packedBits) Clone() BitVector {
	words := make([]uint64, len(p.words))
	copy(words, p.words)
	return &packedBits{words: words, size: p.size}
}
