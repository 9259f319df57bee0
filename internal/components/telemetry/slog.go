package telemetry

import (
	"fmt"
	"log/slog"
)

// SlogAPI reports through the default slog logger. Error params are logged
// under "err", everything else positionally as "params.N".
type SlogAPI struct{}

func attrs(id string, params []any) []any {
	var out []any
	if id != "" {
		out = append(out, "id", id)
	}
	errs := 0
	for i, p := range params {
		if err, ok := p.(error); ok {
			key := "err"
			if errs > 0 {
				key = fmt.Sprintf("err.%d", errs)
			}
			errs++
			out = append(out, key, err.Error())
			continue
		}
		out = append(out, fmt.Sprintf("params.%d", i), p)
	}
	return out
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", attrs(id, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", attrs(id, params)...)
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, attrs("", params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
