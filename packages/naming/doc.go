// Package naming turns paths and host names into identifiers that are safe to
// use as Python method names and file name fragments.
//
// It provides:
//   - Sanitize: collapse non-word runs into underscores
//   - TaskName: the task_NNNNNN_METHOD_path naming scheme for generated tasks
//   - HostFile: the host fragment of generated file names
//   - Quote/QuotePlus: percent-encoding compatible with Python's urllib.parse
package naming
