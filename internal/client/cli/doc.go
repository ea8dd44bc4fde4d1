// Package cli provides the interactive storefront command-line client.
//
// It wires configuration, the local session database, the API client and the
// stores, then runs a REPL on top of them. On start the persisted session is
// restored, so a user stays logged in across restarts until the token expires.
//
// Commands:
//   - register / login / logout
//   - products, mine, show <id>, search [term]
//   - add, edit <id>, delete <id> for products the user owns
//   - cart, buy <id>, qty <id> <n>, rm <id>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
