// Package daemon runs the lifecycle controller as a long-lived process.
//
// Every input (network events from the configured sources, scheduler ticks,
// configuration reloads) is posted to one inbox and handled by a single loop
// goroutine, the only caller of the controller. The loop returns once the
// controller has triggered a restart, leaving the relaunch to the service
// manager.
package daemon
