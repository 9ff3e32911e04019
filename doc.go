// Package beamprofile provides knife-edge Gaussian-beam profiling: the erfc
// intensity model (beam), a generic nonlinear least-squares curve fit (fit)
// and the scan-level analysis that joins them (profile).
package beamprofile
