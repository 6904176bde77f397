package metrics

// MetricsWrapper exposes the narrow recording methods the fetch, render and
// sync paths depend on, so those packages only need small interfaces.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) StatsFetchInc() {
	w.m.StatsFetches.Inc()
}

func (w *MetricsWrapper) StatsFetchErrorInc() {
	w.m.StatsFetchErrors.Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) MalformedRecordInc() {
	w.m.MalformedRecords.Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) StatsFetchLatencyObserve(seconds float64) {
	w.m.StatsFetchLatency.Observe(seconds)
}

func (w *MetricsWrapper) RenderAppliedInc() {
	w.m.RendersApplied.Inc()
}

func (w *MetricsWrapper) RenderSupersededInc() {
	w.m.RendersSuperseded.Inc()
}

func (w *MetricsWrapper) SyncCompleted(seconds float64, trades int) {
	w.m.SyncRuns.Inc()
	w.m.SyncLatency.Observe(seconds)
	w.m.TradesStored.Add(float64(trades))
}

func (w *MetricsWrapper) SyncErrorInc() {
	w.m.SyncErrors.Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) AccountNAVSet(env, account string, nav float64) {
	w.m.AccountNAV.WithLabelValues(env, account).Set(nav)
}

func (w *MetricsWrapper) WSClientsAdd(delta float64) {
	w.m.WSClients.Add(delta)
}
