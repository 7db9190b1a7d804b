// cmd/mappy/main.go
package main

import (
	"mappy/internal/app"
	"mappy/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
