package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxPrecision = 8

type rounder func(float64) float64

// precisionFrom reads ?precision=N. Without it values pass through untouched.
func precisionFrom(c *gin.Context) (rounder, error) {
	raw, ok := c.GetQuery("precision")
	if !ok {
		return func(v float64) float64 { return v }, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxPrecision {
		return nil, fmt.Errorf("%w: precision must be an integer in [0, %d], got %q", models.ErrInvalidParameter, maxPrecision, raw)
	}
	places := int32(n)
	return func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return v
		}
		return decimal.NewFromFloat(v).Round(places).InexactFloat64()
	}, nil
}

func fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func fixed2Slice(vs []float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fixed2(v)
	}
	return out
}

func fixed2Matrix(m [][]float64) [][]string {
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = fixed2Slice(row)
	}
	return out
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, models.ErrComputationTimeout):
		return http.StatusGatewayTimeout, "computation_timeout"
	case errors.Is(err, models.ErrNumericInstability):
		return http.StatusInternalServerError, "numeric_instability"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
