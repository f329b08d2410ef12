// Package state is the persistence gateway for the pet: it reads and writes
// the flat JSON snapshot the host keeps between restarts.
//
// Every boundary returns a foundation.Result. Read failures of any kind are
// classified as corrupt state so the lifecycle controller can reinitialize;
// write failures are classified as persistence errors and are never fatal.
package state
