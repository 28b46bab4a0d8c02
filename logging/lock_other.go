//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package logging

// fileLock is a no-op where flock(2) is unavailable; writes are still
// serialized within the process by the handler mutex.
type fileLock struct{}

func newFileLock(string) *fileLock { return &fileLock{} }

func (*fileLock) Lock() error   { return nil }
func (*fileLock) Unlock() error { return nil }
func (*fileLock) Close() error  { return nil }
