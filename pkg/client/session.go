package client

import (
	"net/http"
	"sync"
	"time"
)

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// session holds the transport used for upstream calls. A transport created
// here is owned and released by close; a supplied one is never touched.
type session struct {
	owned   bool
	timeout time.Duration

	once sync.Once
	doer Doer
	http *http.Client
}

func newSession(supplied Doer, timeout time.Duration) *session {
	if supplied != nil {
		return &session{doer: supplied, owned: false, timeout: timeout}
	}
	return &session{owned: true, timeout: timeout}
}

// get returns the transport, creating the owned one on first use.
func (s *session) get() Doer {
	if !s.owned {
		return s.doer
	}

	s.once.Do(func() {
		s.http = &http.Client{Timeout: s.timeout}
		s.doer = s.http
	})
	return s.doer
}

// close releases an owned transport. It is a no-op for supplied transports
// and for owned ones never created.
func (s *session) close() {
	if !s.owned {
		return
	}

	// Prevents a later get from creating a transport nobody will close.
	s.once.Do(func() {})
	if s.http != nil {
		s.http.CloseIdleConnections()
	}
}
