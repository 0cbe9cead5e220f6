// Package harness cross-checks a system under test against a reference
// implementation, one model order at a time.
//
// # Case Flow
//
// Each case runs sequentially:
//
//  1. consult the skip policy; a skipped case has no side effects
//  2. prepare the case namespace <workspace>/<suite>/<case>/<dialect>
//  3. write the input series, and weights for variants that need them
//  4. project the order onto both argument conventions
//  5. run the system under test, then the reference
//  6. read both results and compare them under the case tolerance
//
// A mismatch is reported in Result, not as an error. Errors are reserved for
// cases that could not be carried out: input generation, unreadable
// results, and executor failures, which are returned exactly as the
// executor produced them.
//
// # Concurrency
//
// Cases share nothing but the workspace root, and every case writes only
// inside its own namespace, so RunSuite may run them in parallel.
package harness
