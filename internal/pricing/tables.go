package pricing

// Depreciation curves are kept as lookup tables so every constant can be
// audited and tested on its own.

// subYearBand is the premium applied to the first-year retention while the
// vehicle is younger than UpTo years.
type subYearBand struct {
	UpTo    float64
	Premium float64
}

var subYearBands = []subYearBand{
	{UpTo: 0.25, Premium: 1.1},
	{UpTo: 0.5, Premium: 1.07},
	{UpTo: 1, Premium: 1.04},
}

// ageRetention holds the per-year retention bases for a category family.
type ageRetention struct {
	FirstYear  float64
	LaterYears float64
}

var (
	electricAgeRetention = ageRetention{FirstYear: 0.7, LaterYears: 0.8}
	defaultAgeRetention  = ageRetention{FirstYear: 0.8, LaterYears: 0.9}
)

func ageRetentionFor(c Category) ageRetention {
	if c == CategoryElectric {
		return electricAgeRetention
	}
	return defaultAgeRetention
}

// yearBoundaries maps vehicle age (years) to an index into the km step tables.
var yearBoundaries = []float64{0, 3.0 / 12, 6.0 / 12, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// kmSteps is the expected kilometre reading (in thousands) per age bracket.
var kmSteps = map[Category][]int{
	CategoryScooter:  {1, 2, 4, 10, 20, 20, 30, 30, 30, 30, 30, 30, 30},
	CategoryMoped:    {1, 2, 4, 10, 20, 20, 30, 30, 30, 30, 30, 30, 30},
	CategoryCommuter: {1, 2, 4, 10, 20, 20, 30, 30, 30, 30, 30, 30, 30},
	CategorySports:   {1, 2, 4, 10, 20, 20, 30, 30, 30, 30, 30, 30, 30},
	CategoryElectric: {1, 2, 4, 10, 20, 20, 30, 30, 30, 30, 30, 30, 30},
	CategoryCruiser:  {1, 2, 4, 10, 20, 30, 40, 40, 40, 40, 40, 40, 40},
}

// kmRetention is the flat retention applied per km step.
var kmRetention = map[Category]float64{
	CategoryCruiser:  0.95,
	CategoryElectric: 0.95,
	CategoryCommuter: 0.96,
	CategoryScooter:  0.95,
	CategoryMoped:    0.96,
	CategorySports:   0.95,
}

// Duration modifiers applied to the first km step boundaries.
const (
	shortStepModifier  = 3.0 / 12
	mediumStepModifier = 6.0 / 12
)

// Beyond the last km step, retention compounds per overflowKmStep kilometres.
const overflowKmStep = 10000

const (
	thirdOwnerRetention = 0.93
	thirdOwnerThreshold = 3
)

// featureMatrix is a from-value (row) to to-value (column) adjustment table.
type featureMatrix struct {
	Values []string
	Table  [][]float64
}

var (
	absMatrix = featureMatrix{
		Values: []string{"no", "single channel abs", "dual channel abs"},
		Table: [][]float64{
			{1, 1.02, 1.04},
			{0.98, 1, 1.02},
			{0.96, 0.98, 1},
		},
	}
	startTypeMatrix = featureMatrix{
		Values: []string{"kick and electric", "electric start", "kick start"},
		Table: [][]float64{
			{1, 1, 0.88},
			{1, 1, 0.88},
			{1.12, 1.12, 1},
		},
	}
	wheelTypeMatrix = featureMatrix{
		Values: []string{"not alloy", "alloy"},
		Table: [][]float64{
			{1, 1.02},
			{0.98, 1},
		},
	}
	brakeTypeMatrix = featureMatrix{
		Values: []string{"disc", "drum"},
		Table: [][]float64{
			{1, 0.99},
			{1.01, 1},
		},
	}
)

// trackedFeatures is the ordered list of key features. fuelSystem is tracked
// for display but carries no matrix.
var trackedFeatures = []string{"abs", "startType", "wheelType", "fuelSystem", "rearBrakeType", "frontBrakeType"}

var featureMatrices = map[string]featureMatrix{
	"abs":            absMatrix,
	"startType":      startTypeMatrix,
	"wheelType":      wheelTypeMatrix,
	"rearBrakeType":  brakeTypeMatrix,
	"frontBrakeType": brakeTypeMatrix,
}
