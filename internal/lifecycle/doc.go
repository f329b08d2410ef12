// Package lifecycle drives the pet through its states.
//
// The Controller owns the single pet.State. Hosts call Load once, then deliver
// network events and periodic ticks one at a time:
//
//	ctrl := lifecycle.New(deps, settings)
//	if err := ctrl.Load(ctx); err != nil { ... }
//	ctrl.OnHandshake(ctx)
//	ctrl.Tick(ctx)
//	if ctrl.Done() { // restart was triggered; stop delivering events
//	}
//
// A Controller is not safe for concurrent use. The daemon serializes every
// call onto one goroutine.
package lifecycle
