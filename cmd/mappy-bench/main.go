// cmd/mappy-bench/main.go
package main

import (
	"mappy/internal/appshell"
	"mappy/internal/benchapp"
)

func main() { appshell.Main(benchapp.RunContext) }
