package task

// ChannelOutcome is the ephemeral result of one delivery attempt on one
// channel. It is never persisted directly; the retry coordinator folds it
// into the reminder's state.
type ChannelOutcome struct {
	Channel Channel
	Err     error
}

// OK reports whether the attempt succeeded.
func (o ChannelOutcome) OK() bool {
	return o.Err == nil
}
