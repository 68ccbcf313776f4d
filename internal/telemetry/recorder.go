package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Kind   string
	Id     string
	Params []any
}

// RecorderAPI keeps every report in memory so tests can assert on them.
type RecorderAPI struct {
	mutex   *sync.Mutex
	reports *[]Report
}

func NewRecorderAPI() RecorderAPI {
	return RecorderAPI{mutex: &sync.Mutex{}, reports: &[]Report{}}
}

func (r RecorderAPI) push(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	*r.reports = append(*r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r RecorderAPI) ReportBroken(id string, params ...any) {
	r.push("broken", id, params)
}

func (r RecorderAPI) ReportWarning(id string, params ...any) {
	r.push("warning", id, params)
}

func (r RecorderAPI) ReportDebug(msg string, params ...any) {
	r.push("debug", msg, params)
}

func (r RecorderAPI) ReportCount(id string, count int64) {
	r.push("count", id, []any{count})
}

// Reports returns the reports of the given kind whose id ends with `suffix`.
func (r RecorderAPI) Reports(kind, suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range *r.reports {
		if report.Kind == kind && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
