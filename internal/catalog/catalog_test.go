package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(&Options{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutAndLookup(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, Entry{
		Name:             "CAB-abc.resource",
		BundlePath:       "bundles/001.bundle",
		Offset:           128,
		DecompressedSize: 4096,
		Flags:            0,
	}))

	entries, err := c.Lookup(ctx, "CAB-abc.resource")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "bundles/001.bundle", entries[0].BundlePath)
	require.EqualValues(t, 4096, entries[0].DecompressedSize)
}

func TestPutAllIndexesBatch(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	entries := []Entry{
		{Name: "a.bin", BundlePath: "x.bundle", Offset: 0, DecompressedSize: 10},
		{Name: "b.bin", BundlePath: "x.bundle", Offset: 10, DecompressedSize: 20},
	}
	require.NoError(t, c.PutAll(ctx, entries))

	bundles, err := c.ListBundles(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"x.bundle"}, bundles)
}

func TestPutUpsertsOnConflict(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, Entry{Name: "n", BundlePath: "b", Offset: 1, DecompressedSize: 1}))
	require.NoError(t, c.Put(ctx, Entry{Name: "n", BundlePath: "b", Offset: 2, DecompressedSize: 2}))

	entries, err := c.Lookup(ctx, "n")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, 2, entries[0].Offset)
}

func TestLookupMissingReturnsEmpty(t *testing.T) {
	c := openTestCatalog(t)
	entries, err := c.Lookup(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, entries)
}
