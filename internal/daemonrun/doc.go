// Package daemonrun assembles the supportflow runtime from configuration and
// drives the daemon process lifecycle.
package daemonrun
