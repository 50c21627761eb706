// Package cli implements the televisor command-line interface.
//
// The root command is "televisor"; with no subcommand it behaves like
// "televisor run":
//
//	televisor run        - Full-screen terminal display
//	televisor serve      - Headless display with an HTTP status API
//	televisor fetch      - One-shot fetch of the record and site, printed as JSON
//	televisor init       - Create .televisor.yaml
//	televisor version    - Print version information
//	televisor completion - Shell completion scripts
//
// Every display command follows the same wiring: load and validate config,
// dial the socket.io backend once, build the remote service, the throughput
// feed and the lifecycle controller, then hand controller events to either
// the Bubble Tea model (run) or a televisor.Store behind the status server
// (serve). On exit the display is treated as going to the background, so
// the backend always receives a process end.
package cli
