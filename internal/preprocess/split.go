package preprocess

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// SplitConfig controls TrainTestSplit.
type SplitConfig struct {
	TestSize float64 // Fraction of rows in the test partition, in (0, 1)
	Shuffle  bool    // Permute rows before splitting
	Seed     uint64  // Permutation seed
}

// DefaultSplitConfig is an 80/20 shuffled split.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{TestSize: 0.2, Shuffle: true, Seed: 42}
}

// Split holds the four partitions produced by TrainTestSplit.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []float64

	// Row indices into the input, in partition order.
	TrainIndex, TestIndex []int
}

// TrainTestSplit partitions X and y into train and test sets.
//
// The train partition holds round((1-TestSize)*N) rows and the test
// partition the remainder. Features and labels are permuted with the same
// permutation, so pairing is preserved.
func TrainTestSplit(X *mat.Dense, y []float64, cfg SplitConfig) (*Split, error) {
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0, 1), got %v", cfg.TestSize)
	}
	n, _ := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: X has %d rows, y has %d", ErrShapeMismatch, n, len(y))
	}

	nTrain := int(math.Round((1 - cfg.TestSize) * float64(n)))
	if nTrain == 0 || nTrain == n {
		return nil, fmt.Errorf("split of %d rows with test size %v leaves an empty partition", n, cfg.TestSize)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if cfg.Shuffle {
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
		rng.Shuffle(n, func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
	}

	trainIdx := append([]int(nil), perm[:nTrain]...)
	testIdx := append([]int(nil), perm[nTrain:]...)

	xTrain, yTrain := gatherRows(X, y, trainIdx)
	xTest, yTest := gatherRows(X, y, testIdx)

	return &Split{
		XTrain:     xTrain,
		XTest:      xTest,
		YTrain:     yTrain,
		YTest:      yTest,
		TrainIndex: trainIdx,
		TestIndex:  testIdx,
	}, nil
}

func gatherRows(X *mat.Dense, y []float64, idx []int) (*mat.Dense, []float64) {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	labels := make([]float64, len(idx))
	for k, i := range idx {
		out.SetRow(k, X.RawRowView(i))
		labels[k] = y[i]
	}
	return out, labels
}
