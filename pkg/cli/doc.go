// Package cli is the command-line surface of devproxy (§6 "CLI surface").
// Only the flags and subcommands the core dispatcher/plugins actually
// consume are specified here — everything else (the TLS-intercepting proxy
// runtime, the configuration file-watcher beyond the minimal poller in
// pkg/devproxyconfig, the permission/report tooling) is out of scope and
// not reimplemented.
package cli
