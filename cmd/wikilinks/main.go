package main

import (
	"wikilinks/internal/app"
	"wikilinks/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
