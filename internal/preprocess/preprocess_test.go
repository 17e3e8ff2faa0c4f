package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestMinMaxScaler_Range(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1.005, 15.4, 7800,
		1.025, 9.6, 6000,
		1.010, 11.2, 9600,
		1.020, 16.2, 6700,
	})

	s := NewMinMaxScaler()
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	col := make([]float64, 4)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, out)
		assert.InDelta(t, 0.0, floats.Min(col), 1e-12, "column %d min", j)
		assert.InDelta(t, 1.0, floats.Max(col), 1e-12, "column %d max", j)
	}
	assert.InDelta(t, (11.2-9.6)/(16.2-9.6), out.At(2, 1), 1e-12)
}

func TestMinMaxScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})

	out, err := NewMinMaxScaler().FitTransform(X)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, out.At(i, 1))
	}
}

func TestMinMaxScaler_Inverse(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 30,
		4, 20,
	})
	s := NewMinMaxScaler()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestMinMaxScaler_Errors(t *testing.T) {
	s := NewMinMaxScaler()
	_, err := s.Transform(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{0, 1, 2, 3})))
	_, err = s.Transform(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = RestoreMinMaxScaler([]float64{0}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMinMaxScaler_Restore(t *testing.T) {
	s, err := RestoreMinMaxScaler([]float64{0, 10}, []float64{2, 20})
	require.NoError(t, err)

	out, err := s.Transform(mat.NewDense(1, 2, []float64{1, 15}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, out.RawRowView(0))
}

func TestParseFitScope(t *testing.T) {
	scope, err := ParseFitScope("train")
	require.NoError(t, err)
	assert.Equal(t, FitTrain, scope)

	_, err = ParseFitScope("test")
	assert.Error(t, err)
}

func sequential(n, d int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, d, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			X.Set(i, j, float64(i*d+j))
		}
		y[i] = float64(i % 2)
	}
	return X, y
}

func TestTrainTestSplit_Sizes(t *testing.T) {
	tests := []struct {
		n, train, test int
	}{
		{300, 240, 60},
		{158, 126, 32},
		{10, 8, 2},
		{7, 6, 1},
	}

	for _, tt := range tests {
		X, y := sequential(tt.n, 8)
		split, err := TrainTestSplit(X, y, DefaultSplitConfig())
		require.NoError(t, err)

		rTrain, _ := split.XTrain.Dims()
		rTest, _ := split.XTest.Dims()
		assert.Equal(t, tt.train, rTrain, "n=%d", tt.n)
		assert.Equal(t, tt.test, rTest, "n=%d", tt.n)
		assert.Len(t, split.YTrain, tt.train)
		assert.Len(t, split.YTest, tt.test)
	}
}

func TestTrainTestSplit_DisjointAndPaired(t *testing.T) {
	X, y := sequential(50, 3)
	split, err := TrainTestSplit(X, y, DefaultSplitConfig())
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, split.TrainIndex...), split.TestIndex...) {
		assert.False(t, seen[i], "row %d in both partitions", i)
		seen[i] = true
	}
	assert.Len(t, seen, 50)

	for k, i := range split.TestIndex {
		assert.Equal(t, X.RawRowView(i), split.XTest.RawRowView(k))
		assert.Equal(t, y[i], split.YTest[k])
	}
	for k, i := range split.TrainIndex {
		assert.Equal(t, X.RawRowView(i), split.XTrain.RawRowView(k))
		assert.Equal(t, y[i], split.YTrain[k])
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	X, y := sequential(40, 2)
	cfg := DefaultSplitConfig()

	a, err := TrainTestSplit(X, y, cfg)
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.TestIndex, b.TestIndex)

	cfg.Shuffle = false
	c, err := TrainTestSplit(X, y, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{32, 33, 34, 35, 36, 37, 38, 39}, c.TestIndex)
}

func TestTrainTestSplit_Errors(t *testing.T) {
	X, y := sequential(10, 2)

	_, err := TrainTestSplit(X, y, SplitConfig{TestSize: 0})
	assert.Error(t, err)

	_, err = TrainTestSplit(X, y[:9], DefaultSplitConfig())
	assert.ErrorIs(t, err, ErrShapeMismatch)

	one, oneY := sequential(1, 2)
	_, err = TrainTestSplit(one, oneY, DefaultSplitConfig())
	assert.Error(t, err)
}
