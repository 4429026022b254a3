// Command supportflow runs customer-support workflows against capability
// providers, either once from the command line (run) or as an HTTP daemon
// (serve), and inspects persisted workflows (show) and the stage catalog
// (stages).
package main
