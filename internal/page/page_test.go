package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 4096

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, testPageSize)
	for i := range buf {
		buf[i] = 0xAB
	}

	p, err := Init(buf, 42, LeafPageFlag)
	require.NoError(t, err)

	// Init clears the whole buffer
	assert.Equal(t, byte(0), buf[testPageSize-1])

	assert.Equal(t, PageID(42), p.ID())
	assert.Equal(t, LeafPageFlag, p.Flags())
	assert.True(t, p.IsLeaf())
	assert.False(t, p.IsBranch())
	assert.False(t, p.IsMeta())
	assert.False(t, p.IsFreelist())
	assert.Equal(t, 0, p.Count())
	assert.Equal(t, 0, p.Overflow())
	assert.Equal(t, 1, p.Pages())
	assert.Nil(t, p.OverflowIDs())

	require.NoError(t, p.SetCount(MaxCount))
	require.NoError(t, p.SetOverflow(3))
	assert.Equal(t, MaxCount, p.Count())
	assert.Equal(t, 3, p.Overflow())
	assert.Equal(t, 4, p.Pages())
	assert.Equal(t, []PageID{43, 44, 45}, p.OverflowIDs())

	// little-endian header at fixed offsets
	assert.Equal(t, []byte{42, 0, 0, 0, 0, 0, 0, 0, 0x02, 0x00, 0xFF, 0xFF, 0x03, 0x00}, buf[:HeaderSize])

	// Load sees the same header
	q, err := Load(buf)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), q.ID())
	assert.Equal(t, p.Count(), q.Count())
}

func TestHeaderSetterLimits(t *testing.T) {
	p, err := Init(make([]byte, HeaderSize), 1, BranchPageFlag)
	require.NoError(t, err)

	require.ErrorIs(t, p.SetCount(MaxCount+1), ErrTooManyElements)
	require.ErrorIs(t, p.SetCount(-1), ErrTooManyElements)
	require.ErrorIs(t, p.SetOverflow(MaxOverflow+1), ErrTooLarge)
}

func TestLoadShortBuffer(t *testing.T) {
	_, err := Load(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrShortBuffer)
	require.ErrorIs(t, err, ErrInvalidAccess)

	_, err = Init(nil, 0, MetaPageFlag)
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestOverflowFor(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{size: HeaderSize, want: 0},
		{size: testPageSize, want: 0},
		{size: testPageSize + 1, want: 1},
		{size: 2 * testPageSize, want: 1},
		{size: 2*testPageSize + 1, want: 2},
	}
	for _, c := range cases {
		got, err := OverflowFor(c.size, testPageSize)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "size=%d", c.size)
	}

	_, err := OverflowFor(10, MinPageSize-1)
	require.ErrorIs(t, err, ErrBadPageSize)

	_, err = OverflowFor((MaxOverflow+2)*testPageSize, testPageSize)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCheckPageSize(t *testing.T) {
	for _, n := range []int{MinPageSize, 1024, DefaultPageSize, MaxPageSize} {
		require.NoError(t, CheckPageSize(n), n)
	}
	for _, n := range []int{0, 256, 1000, 4097, 3 * OneKB, 2 * MaxPageSize} {
		require.ErrorIs(t, CheckPageSize(n), ErrBadPageSize, n)
	}
}

func TestFlag(t *testing.T) {
	for _, f := range []Flag{BranchPageFlag, LeafPageFlag, MetaPageFlag, FreelistPageFlag} {
		assert.True(t, f.Valid(), f.String())
	}
	assert.False(t, Flag(0).Valid())
	assert.False(t, (BranchPageFlag | LeafPageFlag).Valid())

	assert.Equal(t, "branch", BranchPageFlag.String())
	assert.Equal(t, "freelist", FreelistPageFlag.String())
	assert.Equal(t, "unknown(0x0003)", (BranchPageFlag | LeafPageFlag).String())
}

func TestMixedFlagsIsNoKind(t *testing.T) {
	p, err := Init(make([]byte, testPageSize), 9, BranchPageFlag|LeafPageFlag)
	require.NoError(t, err)

	_, err = p.BranchElements()
	require.ErrorIs(t, err, ErrWrongKind)
	_, err = p.LeafElements()
	require.ErrorIs(t, err, ErrWrongKind)
}
