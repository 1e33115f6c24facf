package positions

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/shirou/gopsutil/cpu"
)

type namedValue struct {
	name  string
	value float64
}

// checkFinite reports the first NaN or infinite value, in argument order.
func checkFinite(values ...namedValue) error {
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s is %v", models.ErrNumericInstability, v.name, v.value)
		}
	}
	return nil
}

// YearFraction converts a calendar expiry date (2006-01-02) into years from now.
// Expired contracts yield 0.
func YearFraction(expirationDate string, now time.Time) (float64, error) {
	expDate, err := time.Parse("2006-01-02", expirationDate)
	if err != nil {
		return 0, fmt.Errorf("%w: expiration date %q: %v", models.ErrInvalidParameter, expirationDate, err)
	}
	years := expDate.Sub(now).Hours() / 24 / daysPerYear
	return math.Max(years, 0), nil
}

// WorkerCount resolves a requested worker count, falling back to the number of logical CPUs.
func WorkerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
