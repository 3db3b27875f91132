package hexbin

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetwoodland/webmap/internal/monitoring"
	"github.com/wetwoodland/webmap/internal/projection"
	"github.com/wetwoodland/webmap/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestSingleBlockYieldsOneHexagon(t *testing.T) {
	g := testutil.BlockGrid(10, 10, 3, 3, 3, 1)

	res, err := Aggregate(g, projection.Identity(), Options{Resolution: 2})
	require.NoError(t, err)

	cells := res.Cells()
	require.Len(t, cells, 1)
	assert.Equal(t, 9, cells[0].Count)
	assert.Equal(t, 9.0, cells[0].Sum)
	assert.Equal(t, 1.0, cells[0].Mean())
}

func TestCountsSumToValidPixels(t *testing.T) {
	g := testutil.RandomGrid(60, 40, 0.6, 11)

	res, err := Aggregate(g, projection.Identity(), Options{Resolution: 11})
	require.NoError(t, err)

	assert.Equal(t, g.ValidCount(), res.Total())
	assert.Equal(t, g.ValidCount(), res.Eligible)
	assert.False(t, res.Sampled)
	assert.Greater(t, res.Len(), 1)
}

func TestAggregationIsOrderIndependent(t *testing.T) {
	g := testutil.RandomGrid(30, 30, 0.7, 3)

	type px struct{ lon, lat, v float64 }
	var pixels []px
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if g.Valid(col, row) {
				x, y := g.PixelCenter(col, row)
				pixels = append(pixels, px{x, y, g.At(col, row)})
			}
		}
	}

	forward := NewAggregator(10)
	for _, p := range pixels {
		require.NoError(t, forward.Add(p.lon, p.lat, p.v))
	}

	rng := rand.New(rand.NewPCG(1, 2))
	rng.Shuffle(len(pixels), func(i, j int) { pixels[i], pixels[j] = pixels[j], pixels[i] })
	shuffled := NewAggregator(10)
	for _, p := range pixels {
		require.NoError(t, shuffled.Add(p.lon, p.lat, p.v))
	}

	counts := func(a *Aggregator) map[string]int {
		out := make(map[string]int)
		for _, c := range a.Cells() {
			out[c.Index.String()] = c.Count
		}
		return out
	}
	if diff := cmp.Diff(counts(forward), counts(shuffled)); diff != "" {
		t.Errorf("counts differ after shuffle (-forward +shuffled):\n%s", diff)
	}
	for i, c := range forward.Cells() {
		assert.InDelta(t, c.Sum, shuffled.Cells()[i].Sum, 1e-9)
	}
}

func TestThreshold(t *testing.T) {
	g := testutil.EmptyGrid(4, 1)
	g.Data = []float64{0, 0.2, 0.6, 1}

	zero := 0.0
	res, err := Aggregate(g, projection.Identity(), Options{Resolution: 5, Threshold: &zero})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total(), "threshold is strict")

	half := 0.5
	res, err = Aggregate(g, projection.Identity(), Options{Resolution: 5, Threshold: &half})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total())

	res, err = Aggregate(g, projection.Identity(), Options{Resolution: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total(), "no threshold counts every valid pixel")
}

func TestSamplingCapIsDeterministic(t *testing.T) {
	g := testutil.RandomGrid(50, 50, 0.8, 5)
	opts := Options{Resolution: 12, MaxPixels: 500, Seed: 42}

	a, err := Aggregate(g, projection.Identity(), opts)
	require.NoError(t, err)
	b, err := Aggregate(g, projection.Identity(), opts)
	require.NoError(t, err)

	assert.True(t, a.Sampled)
	assert.Equal(t, 500, a.Total())
	assert.Equal(t, g.ValidCount(), a.Eligible)
	if diff := cmp.Diff(a.Cells(), b.Cells()); diff != "" {
		t.Errorf("sampled runs differ (-first +second):\n%s", diff)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	pixels := make([]int, 100)
	for i := range pixels {
		pixels[i] = i * 3
	}
	got := sample(pixels, 40, 9)
	require.Len(t, got, 40)
	seen := make(map[int]bool)
	for i, p := range got {
		assert.False(t, seen[p], "pixel %d picked twice", p)
		seen[p] = true
		assert.Zero(t, p%3)
		if i > 0 {
			assert.Less(t, got[i-1], p)
		}
	}
	assert.Equal(t, 0, pixels[0], "input is not modified")
	assert.Equal(t, 297, pixels[99])
}

func TestNoPixels(t *testing.T) {
	_, err := Aggregate(testutil.EmptyGrid(5, 5), projection.Identity(), Options{Resolution: 8})
	assert.True(t, errors.Is(err, ErrNoPixels))

	g := testutil.BlockGrid(5, 5, 0, 0, 2, 0.1)
	high := 0.5
	_, err = Aggregate(g, projection.Identity(), Options{Resolution: 8, Threshold: &high})
	assert.True(t, errors.Is(err, ErrNoPixels))
}

func TestDefaultNoData(t *testing.T) {
	g := testutil.EmptyGrid(3, 1)
	g.HasNoData = false
	g.Data = []float64{255, 1, 1}

	res, err := Aggregate(g, projection.Identity(), Options{Resolution: 6})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total())
	assert.False(t, g.HasNoData, "caller grid untouched")
}

func TestInvalidResolution(t *testing.T) {
	g := testutil.BlockGrid(4, 4, 0, 0, 2, 1)
	_, err := Aggregate(g, projection.Identity(), Options{Resolution: 16})
	assert.Error(t, err)
	_, err = Aggregate(g, projection.Identity(), Options{Resolution: 8, MaxPixels: -1})
	assert.Error(t, err)
}

func TestProjectedGridRecordsPixelArea(t *testing.T) {
	g := testutil.ProjectedGrid(8, 8, 0.4)
	p, err := projection.New(g.CRS)
	require.NoError(t, err)

	res, err := Aggregate(g, p, Options{Resolution: 3})
	require.NoError(t, err)
	assert.Equal(t, 625.0, res.PixelAreaM2)
	assert.Equal(t, 64, res.Total())
}
