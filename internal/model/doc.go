// Package model defines the run report shared by the workload, report and
// database packages.
//
// RunReport is serializable to JSON for report output and history storage.
package model
