// Package cli provides the dashapi command-line client.
//
// It wires configuration, the token store, the API client and the typed
// services. Commands run one-shot from the command line or, without a
// subcommand, inside an interactive REPL.
//
// Key features:
//   - login / register / logout / whoami
//   - get <path>: print any API resource as indented JSON
//   - accounts: list every accounting account across pages
//   - stats: session counters of the client
//
// Tokens outlive the process in the SQLite token DB (or in Redis when
// configured), so "dashapi login" followed by "dashapi get ..." works.
package cli
