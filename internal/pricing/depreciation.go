package pricing

import (
	"math"
	"sort"
	"time"
)

// UsedPrice composes the km, age, owner and perception factors against the
// new price and truncates the result.
func UsedPrice(category Category, km, year, month int, newPrice float64, owner int, sd SDFactors, now time.Time) int64 {
	kmFactor := KmFactor(category, km, year, month, now)
	ageFactor := AgeFactor(category, year, month, sd, now)
	ownerFactor := OwnerFactor(owner)
	perceptionFactor := PerceptionFactor(category, sd)

	return int64(newPrice * kmFactor * ageFactor * ownerFactor * perceptionFactor)
}

// OwnerFactor penalizes third and later owners.
func OwnerFactor(owner int) float64 {
	if owner >= thirdOwnerThreshold {
		return thirdOwnerRetention
	}
	return 1
}

// PerceptionFactor is the seasonal perception adjustment. Seasonal logic is
// disabled, so it is always neutral.
func PerceptionFactor(Category, SDFactors) float64 {
	return 1
}

// AgeFactor returns the age retention for a registration month/year.
// Vehicles younger than a year get a premium on the first-year retention;
// older ones compound one retention per elapsed calendar year.
func AgeFactor(category Category, year, month int, sd SDFactors, now time.Time) float64 {
	ret := ageRetentionFor(category)
	age := fractionalAge(year, month, now)

	for _, band := range subYearBands {
		if age < band.UpTo {
			return band.Premium * retain(ret.FirstYear, sd.First)
		}
	}

	factor := 1.0
	for i := 1; i <= now.Year()-year; i++ {
		factor *= yearRetention(ret, sd, i)
	}
	return factor
}

func yearRetention(ret ageRetention, sd SDFactors, yearIndex int) float64 {
	switch {
	case yearIndex == 1:
		return retain(ret.FirstYear, sd.First)
	case yearIndex <= 3:
		return retain(ret.LaterYears, sd.FirstConsecutive)
	case yearIndex <= 8:
		return retain(ret.LaterYears, sd.Consecutive)
	default:
		return retain(ret.LaterYears, sd.Later)
	}
}

// retain dampens the depreciation (1 - base) by the supply/demand factor.
func retain(base, factor float64) float64 {
	return 1 - (1-base)*(1-factor)
}

// KmFactor returns the kilometre retention. Readings up to the age-bracket
// normalcy are free; each step above it depreciates linearly, and readings
// past the last step compound per 10,000 km. Unknown categories are neutral.
func KmFactor(category Category, km, year, month int, now time.Time) float64 {
	steps, ok := kmSteps[category]
	if !ok {
		return 1
	}
	rate := kmRetention[category]

	age := fractionalAge(year, month, now)
	if age >= 1 {
		age = float64(now.Year() - year)
	}

	factor := 1.0
	if idx := yearBracket(age); idx >= 0 {
		applicable := applicableSteps(uniqueSorted(steps), steps[idx]*1000, km)
		for i := 0; i < len(applicable)-1; i++ {
			cur, next := applicable[i], applicable[i+1]
			modifier := 1.0
			switch cur {
			case steps[0], steps[1]:
				modifier = shortStepModifier
			case steps[2]:
				modifier = mediumStepModifier
			}
			covered := float64(min(km, next*1000) - cur*1000)
			factor *= 1 - modifier*(1-rate)*covered/float64((next-cur)*1000)
		}
	}

	slab := steps[len(steps)-1] * 1000
	if km > slab {
		over := km - slab
		quotient := over / overflowKmStep
		remainder := over % overflowKmStep
		if remainder == 0 {
			remainder = 1
		}
		factor *= (1 - (1-rate)*float64(remainder)/overflowKmStep) * math.Pow(rate, float64(quotient))
	}

	return factor
}

// yearBracket returns the index of the last year boundary not above age, or -1.
func yearBracket(age float64) int {
	n := 0
	for _, b := range yearBoundaries {
		if age >= b {
			n++
		}
	}
	return n - 1
}

// applicableSteps returns the steps between the normalcy reading and km,
// followed by the first step above km.
func applicableSteps(unique []int, normalcy, km int) []int {
	var out []int
	for _, s := range unique {
		if normalcy <= s*1000 && s*1000 <= km {
			out = append(out, s)
		}
	}
	for _, s := range unique {
		if s*1000 > km {
			out = append(out, s)
			break
		}
	}
	return out
}

func uniqueSorted(steps []int) []int {
	seen := make(map[int]struct{}, len(steps))
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// monthsBetween is the signed month distance from now to the registration month.
func monthsBetween(year, month int, now time.Time) int {
	return (year-now.Year())*12 + (month - int(now.Month()))
}

func fractionalAge(year, month int, now time.Time) float64 {
	return math.Abs(float64(monthsBetween(year, month, now))) / 12
}
