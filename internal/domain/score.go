package domain

// MaxDailyScore is the best possible daily score: VeryHigh in all three dimensions.
const MaxDailyScore = 3 * float64(BandVeryHigh)

// Score sums the band points of the reading's three dimensions. The result is
// not normalized.
func Score(w DailyWeather, cond CropCondition) float64 {
	return cond.Temperature.Lookup(w.MeanTemp).Points() +
		cond.Sunshine.Lookup(w.SunshineHours).Points() +
		cond.Precipitation.Lookup(w.PrecipitationMm).Points()
}
