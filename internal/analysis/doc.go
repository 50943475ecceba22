// Package analysis characterises recorded coupler behaviour.
//
//   - [PowerSpectrum] and [DominantFrequency]: surging of slack and force
//     along the train, from a uniformly sampled series
//   - [Summarize]: mean, spread and extremes of a series
//
// Series come from a stored run, for example:
//
//	forces := storage.Column(series.Forces, 0)
//	hz := analysis.DominantFrequency(forces, meta.Dt)
package analysis
