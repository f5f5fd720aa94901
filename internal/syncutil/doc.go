// Package syncutil holds the locks racer uses for its own bookkeeping.
//
// They are the sync types in normal builds. Building with -tags deadlock
// swaps in github.com/sasha-s/go-deadlock so that a bookkeeping lock held
// for too long, or taken in inconsistent order, is reported while working
// on racer itself.
package syncutil
