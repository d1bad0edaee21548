// Package main is the entry point for xenonctl, a command-line client for
// Xenon file systems and schedulers.
package main

func main() {
	Execute()
}
