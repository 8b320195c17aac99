package till

// advisory runs a best-effort sub-step (WAL checkpoint, header
// verification, mirror upload). The outcome is consumed only for logging;
// it never affects the primary operation's control flow.
func advisory(logger Logger, step string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("advisory step failed", "step", step, "error", err)
		return
	}
	logger.Debug("advisory step ok", "step", step)
}
