package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bcdannyboy/quantbox/models"
)

func TestNormCDFAccuracy(t *testing.T) {
	worst := 0.0
	for x := -10.0; x <= 10.0; x += 0.001 {
		diff := math.Abs(models.NormCDF(x) - distuv.UnitNormal.CDF(x))
		worst = math.Max(worst, diff)
	}
	require.LessOrEqual(t, worst, 7.5e-8, "A&S approximation must stay within its published bound")
}

func TestNormCDFSymmetryAndLimits(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1, 1.96, 3, 6} {
		require.InDelta(t, 1.0, models.NormCDF(x)+models.NormCDF(-x), 1e-12)
	}

	require.InDelta(t, 0.5, models.NormCDF(0), 1e-7)
	require.Equal(t, 1.0, models.NormCDF(math.Inf(1)))
	require.Equal(t, 0.0, models.NormCDF(math.Inf(-1)))
	require.InDelta(t, 1.0, models.NormCDF(40), 1e-15)
	require.InDelta(t, 0.0, models.NormCDF(-40), 1e-15)
	require.True(t, math.IsNaN(models.NormCDF(math.NaN())))
}

func TestNormPDF(t *testing.T) {
	require.InDelta(t, 0.3989422804014327, models.NormPDF(0), 1e-15)
	require.InDelta(t, distuv.UnitNormal.Prob(1.3), models.NormPDF(1.3), 1e-15)
	require.Equal(t, models.NormPDF(2.2), models.NormPDF(-2.2))
	require.Equal(t, 0.0, models.NormPDF(100))
}
