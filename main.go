package main

import "rank-drop-alerts/internal/cli"

func main() {
	cli.Execute()
}
