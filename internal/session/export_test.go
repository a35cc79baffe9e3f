package session

// HoldLoop parks the event loop until the returned release func is called.
func (s *Session) HoldLoop() (release func()) {
	entered := make(chan struct{})
	done := make(chan struct{})
	s.loop.Post(func() {
		close(entered)
		<-done
	})
	<-entered
	return func() { close(done) }
}
