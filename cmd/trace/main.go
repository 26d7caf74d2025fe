// Package main provides the trace CLI.
package main

func main() {
	Execute()
}
