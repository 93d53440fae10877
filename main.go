package main

import "github.com/itsmostafa/steptrace/cmd"

func main() {
	cmd.Execute()
}
