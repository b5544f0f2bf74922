package main

import "wondoner-github/internal/cmd"

func main() {
	cmd.Execute()
}
