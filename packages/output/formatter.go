package output

import "github.com/abdul-hamid-achik/locustgen/packages/export"

// Report summarizes one generation run.
type Report struct {
	Source  string        // where flows came from: proxy address, journal or import file
	Flows   int           // flows turned into tasks
	Skipped int           // flows filtered out or rejected
	Files   []export.File // written scripts
}

// Formatter reports generation runs.
type Formatter interface {
	FormatReport(report *Report) error
	FormatError(err error)
}
