package harness

// Reporter receives progress events while a run executes.
type Reporter interface {
	TestStarted(id TestID, displayName string)
	TestError(id TestID, err error)
	TestFinished(result Result)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) TestStarted(TestID, string) {}
func (NopReporter) TestError(TestID, error)    {}
func (NopReporter) TestFinished(Result)        {}
