package backend

// Statistic names understood by BasicStatisticsBackend.
const (
	StatMin                  = "min"
	StatMax                  = "max"
	StatSum                  = "sum"
	StatMean                 = "mean"
	StatVariance             = "variance"
	StatVariation            = "variation"
	StatSumSquares           = "sum_squares"
	StatStandardDeviation    = "standard_deviation"
	StatSumSquaresCentered   = "sum_squares_centered"
	StatSecondOrderRawMoment = "second_order_raw_moment"
)

// AllStatistics lists every statistic in canonical order.
var AllStatistics = []string{
	StatMin,
	StatMax,
	StatSum,
	StatMean,
	StatVariance,
	StatVariation,
	StatSumSquares,
	StatStandardDeviation,
	StatSumSquaresCentered,
	StatSecondOrderRawMoment,
}

// IsStatistic reports whether name is a known statistic.
func IsStatistic(name string) bool {
	for _, s := range AllStatistics {
		if s == name {
			return true
		}
	}
	return false
}
