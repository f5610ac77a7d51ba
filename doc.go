// Package eigo builds compact interpolation bases for large collections of
// operator evaluations: a small collateral basis plus a matching set of
// interpolation DOFs that together replace an expensive high-dimensional
// nonlinear quantity by a cheap interpolant evaluated at a handful of
// components.
//
// # Quick start
//
// Greedy construction from precomputed evaluations:
//
//	evals, _ := vector.NewDenseFromRows(rows)
//	dofs, basis, hist, err := eigo.EIGreedy(ctx, eigo.Evaluations(evals),
//	    eigo.WithTargetError(1e-10),
//	)
//
// POD-seeded construction (DEIM):
//
//	dofs, basis, hist, err := eigo.DEIM(ctx, evals, eigo.WithModes(20))
//
// Whole-model convenience: solve a parameter sample, interpolate named
// operators, and substitute the interpolants into a modified model:
//
//	region, _ := cache.NewDisk(cache.DiskConfig{RootDir: "./evals"})
//	m2, data, err := eigo.InterpolateOperators(ctx, m,
//	    []string{"reaction"}, sample,
//	    eigo.WithCacheRegion(region),
//	    eigo.WithMaxInterpolationDOFs(30),
//	)
//
// # Stopping conditions
//
// A greedy run ends in one of three terminal states, all successful and
// distinguished in the returned History: the configured target error was
// reached, the DOF budget was exhausted, or the selection degenerated (a DOF
// was proposed twice). Only numerical failure (a Gramian that is not
// positive definite under orthogonal projection) aborts with an error.
package eigo
