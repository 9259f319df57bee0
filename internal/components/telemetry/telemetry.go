package telemetry

import (
	"fmt"
)

// API is what components report through instead of logging directly, tests
// swap in a Recorder to assert on failures.
//
// Ids name the component and method that reported, `<struct>.<method>` in
// lowercase with dashes inside the method name (ex. `client.fetch-list`).
// ScopedAPI adds the package namespace in front.
type API interface {
	// ReportBroken reports a failure that needs fixing.
	ReportBroken(id string, params ...any)
	// ReportWarning reports a failure the caller recovered from, such as a
	// skipped page.
	ReportWarning(id string, params ...any)
	ReportDebug(msg string, params ...any)
	// ReportCount reports a point-in-time count, counts are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with "<namespace>: ".
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
