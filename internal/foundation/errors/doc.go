// Package errors provides the classified error primitives used across extlinks.
//
// Errors carry a category (config, filesystem, parse, ...), a severity and a
// small context map. The CLI adapter turns them into exit codes and log lines.
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "read page").
//		WithContext("path", path).
//		Build()
package errors
