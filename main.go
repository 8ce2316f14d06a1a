// Package main is the entry point of contractabi, a tool that extracts the
// function ABI of Rust-like smart contract sources.
package main

import "contractabi/cmd"

func main() {
	cmd.Execute()
}
