package insight

import "time"

// SetNow overrides the service clock in tests.
func SetNow(s *Service, now func() time.Time) {
	s.now = now
}
