package main

import "github.com/KaramelBytes/tablechart-cli/cmd"

func main() {
	cmd.Execute()
}
