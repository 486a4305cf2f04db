// Package pipeline provides a framework for executing analysis steps in
// sequence.
//
// The pipeline pattern is used to process input files through multiple
// stages: classification, file digesting, indicator extraction, enrichment,
// and the optional AI analysis. Each stage is implemented as a Step that
// receives the accumulated report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running analyses
//
// The pipeline supports both individual analyses and batch processing with
// concurrency control using errgroup.
package pipeline
