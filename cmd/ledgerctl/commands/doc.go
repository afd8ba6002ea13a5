// Package commands defines the ledgerctl CLI, used to seed and inspect the
// trading ledger while the server is down.
//
// Commands
//
//   - members     List every member with balance and collection size
//   - assets      List the collection of one member
//   - history     List settlement receipts, newest first
//   - seed        Create members from a TOML file
//   - grant       Give a creature to a member
//   - balance     Add or remove coins
//   - favorite    Protect a creature from trade, or clear the flag
//   - select      Change the selected creature
//
// Read commands open the store read-only and can run next to the server.
package commands
