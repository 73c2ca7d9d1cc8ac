package main

import "github.com/syntropynet/globaldb/cmd"

func main() {
	cmd.Execute()
}
