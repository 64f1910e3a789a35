// Package neighbor supplies the resolver with what it can know before it
// sends a single frame:
//   - entries already in the kernel neighbor table
//   - static entries from a TOML or JSON file
//   - the targets to resolve, from addresses, CIDR ranges or local networks
//   - the address facts of the local interface
package neighbor
