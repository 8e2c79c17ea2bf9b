package reporter

// CompositeReporter fans out every event to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a reporter that forwards to all given reporters.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) SystemInfo(summary SystemSummary) {
	for _, r := range c.reporters {
		r.SystemInfo(summary)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) ItemStarted(progress ItemProgress) {
	for _, r := range c.reporters {
		r.ItemStarted(progress)
	}
}

func (c *CompositeReporter) ItemComplete(summary DecisionSummary) {
	for _, r := range c.reporters {
		r.ItemComplete(summary)
	}
}

func (c *CompositeReporter) TestResult(summary DecisionSummary) {
	for _, r := range c.reporters {
		r.TestResult(summary)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
