package main

import "github.com/ValentinKolb/dArray/cmd"

func main() {
	cmd.Execute()
}
