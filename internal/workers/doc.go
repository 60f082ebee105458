// Package workers sizes the pipeline's bounded worker pools from the
// CPUs available to the process, with a PIPELINE_WORKERS override.
package workers
