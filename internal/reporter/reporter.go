package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	SystemInfo(summary SystemSummary)
	BatchStarted(info BatchStartInfo)
	ItemStarted(progress ItemProgress)
	ItemComplete(summary DecisionSummary)
	TestResult(summary DecisionSummary)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) SystemInfo(SystemSummary)      {}
func (NullReporter) BatchStarted(BatchStartInfo)   {}
func (NullReporter) ItemStarted(ItemProgress)      {}
func (NullReporter) ItemComplete(DecisionSummary)  {}
func (NullReporter) TestResult(DecisionSummary)    {}
func (NullReporter) Warning(string)                {}
func (NullReporter) Error(ReporterError)           {}
func (NullReporter) OperationComplete(string)      {}
func (NullReporter) BatchComplete(BatchSummary)    {}
func (NullReporter) Verbose(string)                {}
