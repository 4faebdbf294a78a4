// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides the CSV feed fixtures the parsing,
// service, handler and command tests share, and a buffered slog handler
// for asserting on log output:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    // ... exercise code with logger
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "feed refresh failed")
//	}
//
// Nothing here may import domain services; it must stay importable from
// every package's tests.
package shared
