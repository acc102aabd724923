package storetest

import (
	"github.com/mycok/siteSearch/store"
)

// BaseSuite defines a set of re-usable storage tests that can be executed
// against any concrete type that implements the store.Store interface.
type BaseSuite struct {
	s store.Store
}

// SetStore configures the test-suite to run all tests against an instance
// of store.Store.
func (s *BaseSuite) SetStore(st store.Store) {
	s.s = st
}
