// Command termdeposit explores the UCI bank marketing data and benchmarks
// classifiers that predict term-deposit subscription.
package main

import "github.com/YuminosukeSato/termdeposit/internal/cli"

func main() {
	cli.Execute()
}
