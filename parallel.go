package tsne

import "sync"

// parallelRows splits [0, n) into contiguous row ranges and calls fn on each
// range from its own goroutine. Ranges never overlap, so fn may write to
// row-indexed output without synchronization. With numWorkers <= 1 fn runs
// once on the calling goroutine.
func parallelRows(n, numWorkers int, fn func(start, end int)) {
	if numWorkers <= 1 || n <= 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, n)
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(startRow, endRow)
	}

	wg.Wait()
}

// ComputePairwiseDistancesParallel computes the full n×n distance matrix using
// multiple goroutines. data is flat row-major with n rows and dims columns.
// numWorkers controls the degree of parallelism; if <= 1, it falls back to
// single-threaded ComputePairwiseDistances.
//
// The result is bitwise identical to ComputePairwiseDistances.
func ComputePairwiseDistancesParallel(data []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return ComputePairwiseDistances(data, n, dims, metric)
	}

	result := make([]float64, n*n)

	// Each worker fills full rows, so every cell has exactly one writer.
	parallelRows(n, numWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			a := data[i*dims : (i+1)*dims]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				result[i*n+j] = metric.Distance(a, data[j*dims:(j+1)*dims])
			}
		}
	})

	return result
}
